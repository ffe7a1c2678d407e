package inventory

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

type csvColumn int

const (
	colPartID csvColumn = iota
	colColor
	colQuantity
	colItemType
	colCondition
	colPrice
	colRemarks
	columnCount
)

var csvAliases = map[string]csvColumn{
	"part_id":   colPartID,
	"item_id":   colPartID,
	"itemid":    colPartID,
	"color_id":  colColor,
	"color":     colColor,
	"quantity":  colQuantity,
	"qty":       colQuantity,
	"item_type": colItemType,
	"itemtype":  colItemType,
	"condition": colCondition,
	"price":     colPrice,
	"remarks":   colRemarks,
}

var requiredColumns = []struct {
	col  csvColumn
	name string
}{
	{colPartID, "part_id"},
	{colColor, "color_id"},
	{colQuantity, "quantity"},
}

// loadCSV reads a headed CSV export. Column names are matched
// case-insensitively and unknown columns are ignored.
func loadCSV(r io.Reader) (*Multiset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, malformed(0, "missing header row")
	}
	if err != nil {
		return nil, malformed(0, "invalid header: %v", err)
	}

	index := make([]int, columnCount)
	for i := range index {
		index[i] = -1
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if col, ok := csvAliases[name]; ok && index[col] < 0 {
			index[col] = i
		}
	}
	for _, req := range requiredColumns {
		if index[req.col] < 0 {
			return nil, malformed(0, "header is missing a %s column", req.name)
		}
	}

	cell := func(record []string, col csvColumn) string {
		i := index[col]
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	b := NewBuilder()
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, malformed(line, "invalid csv: %v", err)
		}
		if blankRecord(record) {
			line--
			continue
		}
		raw := rawItem{
			itemType:  cell(record, colItemType),
			partID:    cell(record, colPartID),
			color:     cell(record, colColor),
			quantity:  cell(record, colQuantity),
			condition: cell(record, colCondition),
			price:     cell(record, colPrice),
			remarks:   cell(record, colRemarks),
		}
		if err := addRaw(b, raw, line); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
