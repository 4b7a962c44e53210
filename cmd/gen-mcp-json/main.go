// gen-mcp-json writes a ready-to-use .mcp.json at the module root so
// an MCP client can launch the trip-engine binary with the current
// configuration exported as environment variables.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	cfg "github.com/travel-butler/trip-engine/pkg/config"
)

type mcpJSON struct {
	MCPServers map[string]serverDef `json:"mcpServers"`
}

type serverDef struct {
	Command string     `json:"command,omitempty"`
	Args    []string   `json:"args,omitempty"`
	Env     orderedEnv `json:"env,omitempty"`
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

func main() {
	// Loading the config initializes viper with defaults, file values
	// and environment overrides.
	if _, err := cfg.LoadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	settings := viper.AllSettings()
	flat := make(map[string]any)
	flattenMap("", settings, flat)
	env := make(map[string]string, len(flat))
	for k, v := range flat {
		env[toEnvKey(k)] = anyToString(v)
	}

	command := os.Getenv("TRIP_ENGINE_GEN_COMMAND")
	if command == "" {
		buildDir := os.Getenv("BUILD_DIR")
		binName := os.Getenv("BINARY_NAME")
		if buildDir != "" && binName != "" {
			command = filepath.ToSlash(filepath.Join(buildDir, binName))
		} else {
			command = filepath.ToSlash(filepath.Join("./build", "trip-engine"))
		}
	}

	m := mcpJSON{
		MCPServers: map[string]serverDef{
			"trip-engine": {
				Command: command,
				Args:    []string{},
				Env:     orderedEnv(env),
			},
		},
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal .mcp.json: %v\n", err)
		os.Exit(1)
	}

	wd, _ := os.Getwd()
	root, err := findModuleRoot(wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate module root: %v\n", err)
		os.Exit(1)
	}
	outPath := filepath.Join(root, ".mcp.json")
	if err := os.WriteFile(outPath, append(data, '\n'), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write .mcp.json: %v\n", err)
		os.Exit(1)
	}
}

func toEnvKey(dotKey string) string {
	return "TRIP_ENGINE_" + strings.ToUpper(strings.ReplaceAll(dotKey, ".", "_"))
}

// orderedEnv marshals map[string]string with deterministic key order.
type orderedEnv map[string]string

func (o orderedEnv) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, k := range keys {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// flattenMap flattens nested maps into dot-separated keys.
func flattenMap(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenMap(key, nested, out)
			continue
		}
		out[key] = v
	}
}

func anyToString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
