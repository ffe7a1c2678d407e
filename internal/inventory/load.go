package inventory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Format identifies an inventory export format.
type Format string

const (
	FormatXML Format = "xml"
	FormatCSV Format = "csv"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".bsx":
		return FormatXML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unrecognized inventory extension %q (want .xml, .bsx, or .csv)", filepath.Ext(path))
	}
}

// Load parses an inventory export. No partial multiset is returned on error.
func Load(r io.Reader, format Format) (*Multiset, error) {
	switch format {
	case FormatXML:
		return loadXML(r)
	case FormatCSV:
		return loadCSV(r)
	default:
		return nil, fmt.Errorf("unsupported inventory format %q", format)
	}
}

// LoadFile opens path and parses it using the format implied by its extension.
func LoadFile(path string) (*Multiset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer file.Close()

	inv, err := Load(file, format)
	if err != nil {
		return nil, fmt.Errorf("load inventory %s: %w", path, err)
	}
	return inv, nil
}

// rawItem holds the untyped fields common to every format.
type rawItem struct {
	itemType  string
	partID    string
	color     string
	quantity  string
	condition string
	price     string
	remarks   string
}

func (raw rawItem) lineItem(line int) (LineItem, error) {
	partID := strings.TrimSpace(raw.partID)
	if partID == "" {
		return LineItem{}, malformed(line, "missing part id")
	}
	color, err := parseCount(raw.color)
	if err != nil {
		return LineItem{}, malformed(line, "color id: %v", err)
	}
	qty, err := parseCount(raw.quantity)
	if err != nil {
		return LineItem{}, malformed(line, "quantity: %v", err)
	}
	price := decimal.Zero
	if text := strings.TrimSpace(raw.price); text != "" {
		price, err = decimal.NewFromString(text)
		if err != nil {
			return LineItem{}, malformed(line, "price %q is not a number", text)
		}
	}
	return LineItem{
		PartID:    partID,
		ColorID:   color,
		Quantity:  qty,
		ItemType:  raw.itemType,
		Condition: raw.condition,
		UnitPrice: price,
		Remarks:   raw.remarks,
	}, nil
}

func parseCount(value string) (int, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return 0, fmt.Errorf("missing")
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", text)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

func accepted(itemType string) bool {
	switch strings.ToUpper(strings.TrimSpace(itemType)) {
	case "", ItemTypePart, ItemTypeMinifig:
		return true
	default:
		return false
	}
}

func addRaw(b *Builder, raw rawItem, line int) error {
	if !accepted(raw.itemType) {
		b.Skip()
		return nil
	}
	item, err := raw.lineItem(line)
	if err != nil {
		return err
	}
	if err := b.Add(item); err != nil {
		return malformed(line, "%v", err)
	}
	return nil
}
