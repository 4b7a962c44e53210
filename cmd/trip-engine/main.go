package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/travel-butler/trip-engine/pkg/fxapp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	rootCmd := createRootCommand()
	rootCmd.AddCommand(createVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute the command: %v", err)
	}
}

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trip-engine",
		Short: "Trip Engine - itinerary and booking orchestration MCP server",
		Long: `Trip Engine orchestrates travel itineraries for LLM clients: it drafts
plans, confirms and executes them through the capability gateway, tracks
booking approvals and exports the result to the traveller's calendar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fxapp.New().Run()
			return nil
		},
	}

	addPersistentFlags(rootCmd)

	if err := bindFlags(rootCmd); err != nil {
		log.Fatalf("Failed to bind flags to configuration: %v", err)
	}

	return rootCmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "Trip Engine MCP Server\n")
			fmt.Fprintf(os.Stderr, "Version: %s\n", Version)
			fmt.Fprintf(os.Stderr, "Build time: %s\n", BuildTime)
		},
	}
}

func addPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("transport", "stdio", "transport of the server (stdio, sse)")
	rootCmd.PersistentFlags().String("host", "localhost", "host of the SSE server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of the SSE server")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("gateway-url", "", "base URL of the capability gateway")
}

// bindFlags binds the command line flags to the viper configuration.
func bindFlags(rootCmd *cobra.Command) error {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"transport.type", "transport"},
		{"transport.host", "host"},
		{"transport.port", "port"},
		{"log_level", "log-level"},
		{"log_format", "log-format"},
		{"gateway.base_url", "gateway-url"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, rootCmd.PersistentFlags().Lookup(binding.flag)); err != nil {
			return fmt.Errorf("failed to bind the flag '%s': %w", binding.flag, err)
		}
	}

	return nil
}
