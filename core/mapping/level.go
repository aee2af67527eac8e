package mapping

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Level is the correlation strength between a Course Outcome and a program outcome.
type Level int

const (
	NoCorrelation Level = iota
	Low
	Medium
	High
)

// Levels lists every selectable Level, lowest first.
var Levels = []Level{NoCorrelation, Low, Medium, High}

var levelNames = map[Level]string{
	NoCorrelation: "No Correlation",
	Low:           "Low",
	Medium:        "Medium",
	High:          "High",
}

func (l Level) Valid() bool { return l >= NoCorrelation && l <= High }

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel accepts a digit (0-3) or a level name ("low", "medium", "high", "none").
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "-", "none", "no correlation":
		return NoCorrelation, nil
	case "low", "l":
		return Low, nil
	case "medium", "m":
		return Medium, nil
	case "high", "h":
		return High, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Level(n).Valid() {
		return NoCorrelation, errors.Wrapf(ErrInvalidLevel, "parsing %q", s)
	}
	return Level(n), nil
}

// Column bounds of the two program outcome axes.
const (
	POCount  = 12
	PSOCount = 3
)

// Axis is a fixed-size set of program outcomes, addressed by 1-based ordinals.
type Axis struct {
	Name  string // PO | PSO
	Size  int
	Field string // wire name of the column ordinal
}

var (
	POAxis  = Axis{Name: "PO", Size: POCount, Field: "po_index"}
	PSOAxis = Axis{Name: "PSO", Size: PSOCount, Field: "pso_index"}
)

func (a Axis) Contains(col int) bool { return col >= 1 && col <= a.Size }

func (a Axis) Label(col int) string { return a.Name + strconv.Itoa(col) }

// AxisByName returns POAxis or PSOAxis (case-insensitive).
func AxisByName(name string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case POAxis.Name:
		return POAxis, nil
	case PSOAxis.Name:
		return PSOAxis, nil
	default:
		return Axis{}, errors.Wrapf(ErrUnknownAxis, "%q", name)
	}
}
