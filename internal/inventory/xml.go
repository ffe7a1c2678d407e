package inventory

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type xmlItem struct {
	ItemType  string
	ItemID    string
	Color     string
	Qty       string
	MinQty    string
	Condition string
	Price     string
	Remarks   string
}

// UnmarshalXML matches child elements case-insensitively so that both the
// BrickLink upload layout (ITEMID, COLOR) and BrickStore documents (ItemID,
// ColorID, ItemTypeID) decode into the same item.
func (it *xmlItem) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			field := it.field(t.Name.Local)
			if field == nil {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			*field = value
		case xml.EndElement:
			return nil
		}
	}
}

func (it *xmlItem) field(name string) *string {
	switch strings.ToUpper(name) {
	case "ITEMTYPE", "ITEMTYPEID":
		return &it.ItemType
	case "ITEMID":
		return &it.ItemID
	case "COLOR", "COLORID":
		return &it.Color
	case "QTY":
		return &it.Qty
	case "MINQTY":
		return &it.MinQty
	case "CONDITION":
		return &it.Condition
	case "PRICE":
		return &it.Price
	case "REMARKS", "COMMENTS":
		return &it.Remarks
	default:
		return nil
	}
}

// loadXML reads BrickLink <INVENTORY><ITEM> uploads and BrickStore
// <BrickStoreXML><Inventory><Item> documents. Elements other than ITEM are
// ignored.
func loadXML(r io.Reader) (*Multiset, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	b := NewBuilder()
	line := 0
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(line+1, "invalid xml: %v", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "ITEM") {
			continue
		}
		line++
		var item xmlItem
		if err := decoder.DecodeElement(&item, &start); err != nil {
			return nil, malformed(line, "invalid item: %v", err)
		}
		qty := item.Qty
		if strings.TrimSpace(qty) == "" {
			qty = item.MinQty
		}
		raw := rawItem{
			itemType:  item.ItemType,
			partID:    item.ItemID,
			color:     item.Color,
			quantity:  qty,
			condition: item.Condition,
			price:     item.Price,
			remarks:   item.Remarks,
		}
		if err := addRaw(b, raw, line); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
