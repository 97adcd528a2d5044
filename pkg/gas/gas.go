package gas

import (
	"fmt"
	"math/big"
	"strings"

	"virtual-swap/pkg/amount"
	apperr "virtual-swap/pkg/errors"
)

// Preset identifies a gas price choice.
type Preset string

const (
	Standard Preset = "STANDARD"
	Fast     Preset = "FAST"
	Instant  Preset = "INSTANT"
	Custom   Preset = "CUSTOM"
)

const gweiDecimals = 9

// Snapshot holds the network gas prices (wei) for each preset.
type Snapshot struct {
	Standard *big.Int
	Fast     *big.Int
	Instant  *big.Int
}

// SnapshotFromSuggested derives the preset tiers from a node's suggested gas
// price: fast pays 25% and instant 50% above it.
func SnapshotFromSuggested(suggested *big.Int) Snapshot {
	if suggested == nil {
		suggested = amount.Zero()
	}
	return Snapshot{
		Standard: new(big.Int).Set(suggested),
		Fast:     amount.MulDiv(suggested, big.NewInt(125), big.NewInt(100)),
		Instant:  amount.MulDiv(suggested, big.NewInt(150), big.NewInt(100)),
	}
}

// Selection is a gas price choice. The zero value means FAST.
type Selection struct {
	Preset Preset
	custom *big.Int
}

// Default returns the FAST selection.
func Default() Selection {
	return Selection{Preset: Fast}
}

// NewCustom parses a gas price given in gwei, e.g. "42.5".
func NewCustom(gwei string) (Selection, error) {
	wei, err := amount.Parse(gwei, gweiDecimals)
	if err != nil {
		return Selection{}, apperr.NewValidationError(fmt.Sprintf("invalid gas price %q", gwei))
	}
	if wei.Sign() == 0 {
		return Selection{}, apperr.NewValidationError("gas price must be greater than zero")
	}
	return Selection{Preset: Custom, custom: wei}, nil
}

// FromPreferences resolves a preset name as stored in the config file.
func FromPreferences(preset, custom string) (Selection, error) {
	switch p := Preset(strings.ToUpper(strings.TrimSpace(preset))); p {
	case "":
		return Default(), nil
	case Standard, Fast, Instant:
		return Selection{Preset: p}, nil
	case Custom:
		return NewCustom(custom)
	default:
		return Selection{}, apperr.NewValidationError(fmt.Sprintf("unknown gas preset %q", preset))
	}
}

// Price returns the gas price in wei for this selection. A nil result means
// the snapshot has no value for the preset and the node should decide.
func (s Selection) Price(snap Snapshot) *big.Int {
	var p *big.Int
	switch s.Preset {
	case Custom:
		p = s.custom
	case Standard:
		p = snap.Standard
	case Instant:
		p = snap.Instant
	default:
		p = snap.Fast
	}
	if amount.IsZero(p) {
		return nil
	}
	return new(big.Int).Set(p)
}

// FormatGwei renders a wei amount in gwei.
func FormatGwei(wei *big.Int) string {
	return amount.Format(wei, gweiDecimals, 2) + " gwei"
}
