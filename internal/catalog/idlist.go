package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"figfinder/internal/partkey"
)

// ParseIDList reads one assembly id per line. Blank lines and lines starting
// with '#' are skipped; ids are normalized and deduplicated in first-seen order.
func ParseIDList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	var ids []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id := partkey.NormalizeID(line)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read id list: %w", err)
	}
	return ids, nil
}

// LoadIDList reads an id list file.
func LoadIDList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id list: %w", err)
	}
	defer file.Close()
	return ParseIDList(file)
}
