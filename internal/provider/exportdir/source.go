// Package exportdir reads assembly definitions from a directory of
// per-minifigure JSON exports named <ID>_parts.json.
package exportdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"figfinder/internal/catalog"
	"figfinder/internal/partkey"
)

const fileSuffix = "_parts.json"

type exportPart struct {
	PartID        string `json:"part_id"`
	PartName      string `json:"part_name"`
	ColorID       int    `json:"color_id"`
	ColorName     string `json:"color_name"`
	Quantity      int    `json:"quantity"`
	IsAlternate   bool   `json:"is_alternate"`
	IsCounterpart bool   `json:"is_counterpart"`
	IsExtra       bool   `json:"is_extra"`
	IsSpare       bool   `json:"is_spare"`
}

type exportFile struct {
	MinifigID    string       `json:"minifig_id"`
	MinifigName  string       `json:"minifig_name"`
	Category     string       `json:"category"`
	YearReleased *int         `json:"year_released"`
	Parts        []exportPart `json:"parts"`
}

// Source loads assemblies from Dir.
type Source struct {
	Dir string
	// Now stamps FetchedAt. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Source reading from dir.
func New(dir string) *Source {
	return &Source{Dir: dir, Now: time.Now}
}

// FetchAssembly reads <Dir>/<ID>_parts.json. A missing export wraps fs.ErrNotExist.
func (s *Source) FetchAssembly(ctx context.Context, id string) (catalog.Assembly, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Assembly{}, err
	}
	if strings.TrimSpace(s.Dir) == "" {
		return catalog.Assembly{}, errors.New("export directory not configured")
	}
	id = partkey.NormalizeID(id)
	if id == "" {
		return catalog.Assembly{}, errors.New("minifigure id must not be empty")
	}

	path, err := s.locate(id)
	if err != nil {
		return catalog.Assembly{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Assembly{}, fmt.Errorf("read export for %s: %w", id, err)
	}
	var export exportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return catalog.Assembly{}, fmt.Errorf("parse export %s: %w", path, err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	assembly := catalog.Assembly{
		ID:        id,
		Name:      strings.TrimSpace(export.MinifigName),
		Category:  strings.TrimSpace(export.Category),
		Parts:     make([]catalog.PartEntry, 0, len(export.Parts)),
		FetchedAt: now().UTC(),
	}
	if export.YearReleased != nil {
		assembly.YearReleased = *export.YearReleased
	}
	for i, part := range export.Parts {
		if strings.TrimSpace(part.PartID) == "" {
			return catalog.Assembly{}, fmt.Errorf("parse export %s: part %d has no part_id", path, i+1)
		}
		assembly.Parts = append(assembly.Parts, catalog.PartEntry{
			Key:       partkey.Normalize(part.PartID, part.ColorID),
			PartName:  part.PartName,
			ColorName: part.ColorName,
			Quantity:  part.Quantity,
			Flag:      catalog.FlagFromBools(part.IsAlternate, part.IsCounterpart, part.IsExtra, part.IsSpare),
		})
	}
	return assembly, nil
}

// locate finds the export file for id, tolerating lowercase file names.
func (s *Source) locate(id string) (string, error) {
	candidates := []string{
		filepath.Join(s.Dir, id+fileSuffix),
		filepath.Join(s.Dir, strings.ToLower(id)+fileSuffix),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("export for %s in %s: %w", id, s.Dir, os.ErrNotExist)
}

// IDs lists the minifigure ids that have an export in Dir, sorted.
func (s *Source) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list export directory: %w", err)
	}
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		id := partkey.NormalizeID(strings.TrimSuffix(name, fileSuffix))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
