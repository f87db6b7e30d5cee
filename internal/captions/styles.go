// Package captions generates ASS subtitle files for burn-in at render
// time. Style presets come from a YAML file so look tweaks never require
// a rebuild.
package captions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Style is one [V4+ Styles] preset. Colours use ASS &HAABBGGRR notation.
type Style struct {
	Name      string `yaml:"name"`
	Font      string `yaml:"font"`
	Size      int    `yaml:"size"`
	Primary   string `yaml:"primary"`
	Outline   string `yaml:"outline"`
	Bold      bool   `yaml:"bold"`
	Alignment int    `yaml:"alignment"`
	MarginV   int    `yaml:"margin_v"`
}

type StyleSet struct {
	PlayResX int     `yaml:"play_res_x"`
	PlayResY int     `yaml:"play_res_y"`
	Styles   []Style `yaml:"styles"`
}

// Default returns the name of the fallback style for dialogue lines that
// name no preset or an unknown one.
func (s StyleSet) Default() string {
	if len(s.Styles) == 0 {
		return "Default"
	}
	return s.Styles[0].Name
}

func (s StyleSet) has(name string) bool {
	for _, st := range s.Styles {
		if st.Name == name {
			return true
		}
	}
	return false
}

// DefaultStyles is the built-in preset used when no YAML file is
// configured: white text with a black outline, bottom-centered.
func DefaultStyles() StyleSet {
	return StyleSet{
		PlayResX: 1920,
		PlayResY: 1080,
		Styles: []Style{
			{
				Name:      "Default",
				Font:      "Arial",
				Size:      48,
				Primary:   "&H00FFFFFF",
				Outline:   "&H00000000",
				Bold:      true,
				Alignment: 2,
				MarginV:   60,
			},
			{
				Name:      "Accent",
				Font:      "Arial",
				Size:      48,
				Primary:   "&H0000FFFF",
				Outline:   "&H00000000",
				Bold:      true,
				Alignment: 2,
				MarginV:   60,
			},
		},
	}
}

// LoadStyles reads a YAML preset file. An empty path returns the built-in
// defaults so callers never special-case unconfigured installs.
func LoadStyles(path string) (StyleSet, error) {
	if path == "" {
		return DefaultStyles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return StyleSet{}, fmt.Errorf("failed to read caption styles: %w", err)
	}

	var set StyleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return StyleSet{}, fmt.Errorf("failed to parse caption styles: %w", err)
	}

	if len(set.Styles) == 0 {
		return StyleSet{}, fmt.Errorf("caption styles file %s defines no styles", path)
	}
	for i, st := range set.Styles {
		if st.Name == "" {
			return StyleSet{}, fmt.Errorf("caption style %d has no name", i)
		}
		if st.Font == "" || st.Size <= 0 {
			return StyleSet{}, fmt.Errorf("caption style %q needs a font and size", st.Name)
		}
	}
	if set.PlayResX <= 0 {
		set.PlayResX = 1920
	}
	if set.PlayResY <= 0 {
		set.PlayResY = 1080
	}
	return set, nil
}
