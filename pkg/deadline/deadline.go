package deadline

import (
	"fmt"
	"strings"
	"time"

	apperr "virtual-swap/pkg/errors"
)

// Preset identifies a transaction deadline choice.
type Preset string

const (
	Ten    Preset = "TEN"
	Twenty Preset = "TWENTY"
	Thirty Preset = "THIRTY"
	Forty  Preset = "FORTY"
	Custom Preset = "CUSTOM"
)

var presetMinutes = map[Preset]int{
	Ten:    10,
	Twenty: 20,
	Thirty: 30,
	Forty:  40,
}

// Selection is a resolved deadline choice. The zero value is the default (20 minutes).
type Selection struct {
	Preset        Preset
	customMinutes int
}

// Default returns the 20 minute selection.
func Default() Selection {
	return Selection{Preset: Twenty}
}

// NewCustom validates a custom number of minutes.
func NewCustom(minutes int) (Selection, error) {
	if minutes <= 0 {
		return Selection{}, apperr.NewValidationError(fmt.Sprintf("deadline must be a positive number of minutes, got %d", minutes))
	}
	return Selection{Preset: Custom, customMinutes: minutes}, nil
}

// FromPreferences resolves a preset name as stored in the config file.
func FromPreferences(preset string, custom int) (Selection, error) {
	p := Preset(strings.ToUpper(strings.TrimSpace(preset)))
	if p == "" {
		return Default(), nil
	}
	if p == Custom {
		return NewCustom(custom)
	}
	if _, ok := presetMinutes[p]; !ok {
		return Selection{}, apperr.NewValidationError(fmt.Sprintf("unknown deadline preset %q", preset))
	}
	return Selection{Preset: p}, nil
}

// Minutes returns the selected window length.
func (s Selection) Minutes() int {
	if s.Preset == Custom {
		return s.customMinutes
	}
	if m, ok := presetMinutes[s.Preset]; ok {
		return m
	}
	return presetMinutes[Twenty]
}

// Resolve returns the absolute deadline (unix seconds) for a transaction
// submitted at now.
func Resolve(now time.Time, s Selection) (int64, error) {
	minutes := s.Minutes()
	if minutes <= 0 {
		return 0, apperr.NewValidationError("deadline must be a positive number of minutes")
	}
	return now.Add(time.Duration(minutes) * time.Minute).Round(time.Second).Unix(), nil
}
