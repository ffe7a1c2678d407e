package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"figfinder/internal/partkey"
)

// PartFlag classifies how a part entry relates to the assembly.
type PartFlag string

const (
	FlagRequired    PartFlag = "required"
	FlagAlternate   PartFlag = "alternate"
	FlagCounterpart PartFlag = "counterpart"
	FlagExtra       PartFlag = "extra"
	FlagSpare       PartFlag = "spare"
)

// ParsePartFlag maps a flag name to a PartFlag. Unknown names are rejected.
func ParsePartFlag(value string) (PartFlag, error) {
	switch PartFlag(strings.ToLower(strings.TrimSpace(value))) {
	case FlagRequired, "":
		return FlagRequired, nil
	case FlagAlternate:
		return FlagAlternate, nil
	case FlagCounterpart:
		return FlagCounterpart, nil
	case FlagExtra:
		return FlagExtra, nil
	case FlagSpare:
		return FlagSpare, nil
	default:
		return "", fmt.Errorf("unknown part flag %q", value)
	}
}

// PartEntry is one line of an assembly's inventory.
type PartEntry struct {
	Key       partkey.Key
	PartName  string
	ColorName string
	Quantity  int
	Flag      PartFlag
	// MatchNo groups alternates that can stand in for each other.
	MatchNo int
	// Selected marks an alternate chosen in place of its primary.
	Selected bool
}

// Participates reports whether the entry counts toward matching.
func (e PartEntry) Participates() bool {
	switch e.Flag {
	case FlagRequired:
		return e.Quantity > 0
	case FlagAlternate:
		return e.Selected && e.Quantity > 0
	default:
		return false
	}
}

// Assembly is a predefined object built from a fixed multiset of parts.
type Assembly struct {
	ID           string
	Name         string
	Category     string
	CategoryID   int
	YearReleased int
	Parts        []PartEntry
	FetchedAt    time.Time
}

// Requirement is a participating part with duplicate entries merged.
type Requirement struct {
	Key       partkey.Key
	PartName  string
	ColorName string
	Quantity  int
}

// Requirements returns the participating entries, merging repeated keys and
// preserving the order in which each key first appears.
func (a Assembly) Requirements() []Requirement {
	index := make(map[partkey.Key]int, len(a.Parts))
	out := make([]Requirement, 0, len(a.Parts))
	for _, part := range a.Parts {
		if !part.Participates() {
			continue
		}
		if i, ok := index[part.Key]; ok {
			out[i].Quantity += part.Quantity
			continue
		}
		index[part.Key] = len(out)
		out = append(out, Requirement{
			Key:       part.Key,
			PartName:  part.PartName,
			ColorName: part.ColorName,
			Quantity:  part.Quantity,
		})
	}
	return out
}

// itemData mirrors the catalog item payload kept next to the parts list.
type itemData struct {
	No           string `json:"no,omitempty"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	CategoryID   int    `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	YearReleased *int   `json:"year_released,omitempty"`
}

type partRecord struct {
	PartID        string `json:"part_id"`
	PartName      string `json:"part_name"`
	ColorID       int    `json:"color_id"`
	ColorName     string `json:"color_name"`
	Quantity      int    `json:"quantity"`
	IsAlternate   bool   `json:"is_alternate"`
	IsCounterpart bool   `json:"is_counterpart"`
	IsExtra       bool   `json:"is_extra"`
	IsSpare       bool   `json:"is_spare"`
	MatchNo       int    `json:"match_no,omitempty"`
	Selected      bool   `json:"selected,omitempty"`
}

type assemblyRecord struct {
	ItemData  itemData     `json:"item_data"`
	Parts     []partRecord `json:"parts"`
	FetchedAt *Timestamp   `json:"fetched_at,omitempty"`
}

// MarshalJSON writes the cache layout.
func (a Assembly) MarshalJSON() ([]byte, error) {
	rec := assemblyRecord{
		ItemData: itemData{
			No:           a.ID,
			Name:         a.Name,
			Type:         "MINIFIG",
			CategoryID:   a.CategoryID,
			CategoryName: a.Category,
		},
		Parts: make([]partRecord, 0, len(a.Parts)),
	}
	if a.YearReleased > 0 {
		year := a.YearReleased
		rec.ItemData.YearReleased = &year
	}
	if !a.FetchedAt.IsZero() {
		rec.FetchedAt = &Timestamp{Time: a.FetchedAt}
	}
	for _, part := range a.Parts {
		rec.Parts = append(rec.Parts, partRecord{
			PartID:        part.Key.PartID,
			PartName:      part.PartName,
			ColorID:       part.Key.ColorID,
			ColorName:     part.ColorName,
			Quantity:      part.Quantity,
			IsAlternate:   part.Flag == FlagAlternate,
			IsCounterpart: part.Flag == FlagCounterpart,
			IsExtra:       part.Flag == FlagExtra,
			IsSpare:       part.Flag == FlagSpare,
			MatchNo:       part.MatchNo,
			Selected:      part.Selected,
		})
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads the cache layout.
func (a *Assembly) UnmarshalJSON(data []byte) error {
	var rec assemblyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*a = Assembly{
		ID:         partkey.NormalizeID(rec.ItemData.No),
		Name:       rec.ItemData.Name,
		Category:   rec.ItemData.CategoryName,
		CategoryID: rec.ItemData.CategoryID,
		Parts:      make([]PartEntry, 0, len(rec.Parts)),
	}
	if rec.ItemData.YearReleased != nil {
		a.YearReleased = *rec.ItemData.YearReleased
	}
	if rec.FetchedAt != nil {
		a.FetchedAt = rec.FetchedAt.Time
	}
	for _, part := range rec.Parts {
		a.Parts = append(a.Parts, PartEntry{
			Key:       partkey.Normalize(part.PartID, part.ColorID),
			PartName:  part.PartName,
			ColorName: part.ColorName,
			Quantity:  part.Quantity,
			Flag:      flagFromBools(part),
			MatchNo:   part.MatchNo,
			Selected:  part.Selected,
		})
	}
	return nil
}

func flagFromBools(p partRecord) PartFlag {
	switch {
	case p.IsAlternate:
		return FlagAlternate
	case p.IsCounterpart:
		return FlagCounterpart
	case p.IsSpare:
		return FlagSpare
	case p.IsExtra:
		return FlagExtra
	default:
		return FlagRequired
	}
}

// FlagFromBools exposes the boolean-to-flag mapping for exporters that carry
// the same four booleans.
func FlagFromBools(alternate, counterpart, extra, spare bool) PartFlag {
	return flagFromBools(partRecord{IsAlternate: alternate, IsCounterpart: counterpart, IsExtra: extra, IsSpare: spare})
}
