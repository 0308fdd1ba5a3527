package inventory

import (
	"fmt"
	"strings"
)

// Mode selects one of the two independent inventory datasets.
type Mode string

const (
	// ModeStandard keys items by barcode alone.
	ModeStandard Mode = "standard"
	// ModeLoots keys items by barcode and container ("box").
	ModeLoots Mode = "loots"
)

// UnassignedContainer is the container a Loots item gets when none was given.
const UnassignedContainer = "Unassigned"

// Modes lists every supported mode.
var Modes = []Mode{ModeStandard, ModeLoots}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStandard:
		return ModeStandard, nil
	case ModeLoots:
		return ModeLoots, nil
	default:
		return "", &ValidationError{Op: "parse mode", Err: fmt.Errorf("unknown mode %q", s)}
	}
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	return m == ModeStandard || m == ModeLoots
}

// UsesContainers reports whether the container is part of item identity.
func (m Mode) UsesContainers() bool {
	return m == ModeLoots
}

// mustValid panics on modes outside the enumeration. Reaching it is a
// programming error, not a runtime condition.
func (m Mode) mustValid() {
	if !m.Valid() {
		panic(fmt.Sprintf("inventory: unknown mode %q", string(m)))
	}
}
