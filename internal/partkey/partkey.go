package partkey

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NoColor marks parts where color does not apply (stickers, printed sheets).
const NoColor = 0

// Key identifies a part in a specific color. The zero value is not a valid key.
type Key struct {
	PartID  string `json:"part_id"`
	ColorID int    `json:"color_id"`
}

// Normalize returns the canonical key for the given identifiers. It never
// fails: malformed values are rejected by the loaders before they get here.
func Normalize(partID string, colorID int) Key {
	if colorID < 0 {
		colorID = NoColor
	}
	return Key{PartID: NormalizeID(partID), ColorID: colorID}
}

// NormalizeID trims and uppercases an identifier. Assembly ids share the rule.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	// cases.Caser is stateful, so a fresh one per call keeps this goroutine-safe.
	return cases.Upper(language.Und).String(id)
}

// HasColor reports whether the key carries a real color.
func (k Key) HasColor() bool {
	return k.ColorID != NoColor
}

// String renders the key as PARTID/COLOR.
func (k Key) String() string {
	return k.PartID + "/" + strconv.Itoa(k.ColorID)
}

// Parse reads the PARTID/COLOR form produced by String. A bare part id maps to
// NoColor.
func Parse(value string) (Key, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Key{}, fmt.Errorf("part key: empty value")
	}
	idx := strings.LastIndex(value, "/")
	if idx < 0 {
		return Normalize(value, NoColor), nil
	}
	partID := strings.TrimSpace(value[:idx])
	if partID == "" {
		return Key{}, fmt.Errorf("part key %q: missing part id", value)
	}
	color, err := strconv.Atoi(strings.TrimSpace(value[idx+1:]))
	if err != nil || color < 0 {
		return Key{}, fmt.Errorf("part key %q: color must be a non-negative integer", value)
	}
	return Normalize(partID, color), nil
}

// Less orders keys by part id, then color.
func Less(a, b Key) bool {
	if a.PartID != b.PartID {
		return a.PartID < b.PartID
	}
	return a.ColorID < b.ColorID
}
