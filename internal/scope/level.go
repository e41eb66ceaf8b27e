package scope

import "strings"

// Level selects the frame a lookup addresses.
type Level int

const (
	Local Level = iota
	Outer
	Global
)

// Prefix returns the name prefix formulas use for the level.
func (l Level) Prefix() string {
	switch l {
	case Outer:
		return "$"
	case Global:
		return "@"
	default:
		return ""
	}
}

func (l Level) String() string {
	switch l {
	case Outer:
		return "outer"
	case Global:
		return "global"
	default:
		return "local"
	}
}

// ParseName splits a prefixed variable name into its bare name and level.
// "@TODAY" is global, "$WEIGHT" is outer, "WEIGHT" is local.
func ParseName(name string) (string, Level) {
	switch {
	case strings.HasPrefix(name, "@"):
		return name[1:], Global
	case strings.HasPrefix(name, "$"):
		return name[1:], Outer
	default:
		return name, Local
	}
}

// Resolution is the outcome of a scope lookup.
type Resolution int

const (
	// Found means a record value exists.
	Found Resolution = iota
	// Missing means the record collects the item but it has no value yet.
	Missing
	// Absent means the item does not belong to the addressed record.
	Absent
)

func (r Resolution) String() string {
	switch r {
	case Missing:
		return "missing"
	case Absent:
		return "absent"
	default:
		return "found"
	}
}
