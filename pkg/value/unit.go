package value

import "strings"

// Unit is a dataspace unit such as "gain.db" or "position.cart2D".
// The zero Unit means no unit.
type Unit struct {
	Dataspace string
	Name      string
}

// dataspaces lists the known units per dataspace, canonical spelling first.
var dataspaces = map[string][]string{
	"color":       {"argb", "rgba", "rgb", "bgr", "argb8", "hsv", "cmy8", "xyz"},
	"distance":    {"m", "km", "dm", "cm", "mm", "um", "nm", "pm", "inches", "feet", "miles"},
	"gain":        {"linear", "midigain", "db", "db-raw"},
	"orientation": {"quaternion", "euler", "axis"},
	"position":    {"cart3D", "cart2D", "spherical", "polar", "opengl", "cylindrical"},
	"speed":       {"m/s", "mph", "km/h", "kn", "ft/s", "ft/h"},
	"time":        {"second", "bark", "bpm", "cent", "frequency", "mel", "midinote", "ms", "playback-speed", "sample"},
	"angle":       {"degree", "radian"},
}

// IsZero reports whether the unit is unset.
func (u Unit) IsZero() bool { return u.Dataspace == "" && u.Name == "" }

// String returns the pretty unit text "dataspace.unit", or "" for no unit.
func (u Unit) String() string {
	if u.IsZero() {
		return ""
	}
	if u.Name == "" {
		return u.Dataspace
	}
	return u.Dataspace + "." + u.Name
}

// ParseUnit parses pretty unit text. Unknown text yields the zero Unit.
// Matching is case-insensitive; the canonical spelling is returned.
// A bare dataspace name selects its first unit.
func ParseUnit(text string) Unit {
	text = strings.TrimSpace(text)
	if text == "" {
		return Unit{}
	}

	ds, name, hasName := strings.Cut(text, ".")
	units, ok := lookupDataspace(ds)
	if !ok {
		return Unit{}
	}
	canonicalDS := strings.ToLower(ds)

	if !hasName {
		return Unit{Dataspace: canonicalDS, Name: units[0]}
	}
	for _, u := range units {
		if strings.EqualFold(u, name) {
			return Unit{Dataspace: canonicalDS, Name: u}
		}
	}
	return Unit{}
}

func lookupDataspace(ds string) ([]string, bool) {
	units, ok := dataspaces[strings.ToLower(ds)]
	return units, ok
}
