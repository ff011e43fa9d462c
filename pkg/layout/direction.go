package layout

import (
	"strings"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
)

// Direction is the flow of generations across the page.
type Direction string

const (
	TB Direction = "TB" // ancestors at the top, descendants below
	LR Direction = "LR" // ancestors on the left, descendants to the right
)

// DefaultDirection is used when none is given.
const DefaultDirection = TB

// ParseDirection accepts "TB" or "LR" in any case. Empty input yields
// DefaultDirection.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return DefaultDirection, nil
	case TB:
		return TB, nil
	case LR:
		return LR, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want TB or LR)", s)
}

// Valid reports whether d is TB or LR.
func (d Direction) Valid() bool { return d == TB || d == LR }

// Sides returns the sides connections enter and leave households from.
func (d Direction) Sides() (target, source family.Side) {
	if d == LR {
		return family.SideLeft, family.SideRight
	}
	return family.SideTop, family.SideBottom
}
