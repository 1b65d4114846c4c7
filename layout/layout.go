// Package layout names the array sizes the simulator knows about and loads
// the run configuration from the environment.
package layout

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/geography"
)

var presets = map[string]geography.Geography{
	"one_pe": geography.New(1, 1),
	"small":  geography.New(3, 2),
	"full":   geography.New(50, 8),
}

var sizePattern = regexp.MustCompile(`^([0-9]+)[xX]([0-9]+)$`)

// Preset returns the geography registered under name.
func Preset(name string) (geography.Geography, bool) {
	g, ok := presets[name]
	return g, ok
}

// PresetNames returns the names of all presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Parse turns a preset name or a size written as "WxH" into a geography.
func Parse(s string) (geography.Geography, error) {
	if g, ok := Preset(s); ok {
		return g, nil
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return geography.Geography{}, errors.Errorf(
			"unknown layout %q, use one of %v or WxH", s, PresetNames())
	}

	x, err := strconv.Atoi(m[1])
	if err != nil {
		return geography.Geography{}, errors.Wrapf(err, "layout %q", s)
	}

	y, err := strconv.Atoi(m[2])
	if err != nil {
		return geography.Geography{}, errors.Wrapf(err, "layout %q", s)
	}

	if x < 1 || y < 1 {
		return geography.Geography{}, errors.Errorf(
			"layout %q must have at least one tile in each dimension", s)
	}

	return geography.New(x, y), nil
}
