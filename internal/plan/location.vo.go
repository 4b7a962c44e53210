package plan

import (
	"fmt"
	"strings"
)

// Location is a named place a step happens at.
type Location struct {
	name    string
	address string
	lat     float64
	lng     float64
}

func NewLocation(name, address string, lat, lng float64) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("the location name cannot be empty")
	}
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude: %f", lat)
	}
	if lng < -180 || lng > 180 {
		return nil, fmt.Errorf("invalid longitude: %f", lng)
	}
	return &Location{name: name, address: address, lat: lat, lng: lng}, nil
}

func (l *Location) Name() string {
	return l.name
}

func (l *Location) Address() string {
	return l.address
}

func (l *Location) Coordinates() (lat, lng float64) {
	return l.lat, l.lng
}

func (l *Location) String() string {
	if l.address == "" {
		return l.name
	}
	return fmt.Sprintf("%s (%s)", l.name, l.address)
}
