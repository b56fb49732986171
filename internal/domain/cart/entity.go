// internal/domain/cart/entity.go
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when an item lacks a dish reference or carries a negative price
var ErrInvalidItem = errors.New("invalid cart item")

// Dish references a menu entry. Only the id is interpreted; every other field
// belongs to the caller and is carried through unchanged.
type Dish struct {
	ID     string
	Fields map[string]json.RawMessage
}

// CartItem is one line of the in-progress order
type CartItem struct {
	ID         string
	Dish       Dish
	Quantity   int
	TotalPrice decimal.Decimal
	// Caller-defined fields such as notes or selected options
	Fields map[string]json.RawMessage
}

// Subtotal returns TotalPrice multiplied by Quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.TotalPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the fields a cart requires on insertion
func (i CartItem) Validate() error {
	if i.Dish.ID == "" {
		return fmt.Errorf("%w: dish id is required", ErrInvalidItem)
	}
	if i.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: total price cannot be negative", ErrInvalidItem)
	}
	return nil
}

// clone copies the item so that no pass-through field is shared with i
func (i CartItem) clone() CartItem {
	i.Fields = cloneFields(i.Fields)
	i.Dish.Fields = cloneFields(i.Dish.Fields)
	return i
}

func cloneFields(fields map[string]json.RawMessage) map[string]json.RawMessage {
	if fields == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// MarshalJSON writes the dish with its pass-through fields
func (d Dish) MarshalJSON() ([]byte, error) {
	return marshalWithFields(d.Fields, map[string]interface{}{
		"id": d.ID,
	})
}

// UnmarshalJSON accepts string or numeric dish ids
func (d *Dish) UnmarshalJSON(data []byte) error {
	fields, err := splitFields(data)
	if err != nil {
		return err
	}

	id, err := decodeID(fields["id"])
	if err != nil {
		return fmt.Errorf("dish id: %w", err)
	}
	delete(fields, "id")

	d.ID = id
	d.Fields = nilIfEmpty(fields)
	return nil
}

// MarshalJSON writes totalPrice as a JSON number
func (i CartItem) MarshalJSON() ([]byte, error) {
	return marshalWithFields(i.Fields, map[string]interface{}{
		"id":         i.ID,
		"dish":       i.Dish,
		"quantity":   i.Quantity,
		"totalPrice": json.RawMessage(i.TotalPrice.String()),
	})
}

// UnmarshalJSON reads a persisted line item
func (i *CartItem) UnmarshalJSON(data []byte) error {
	fields, err := splitFields(data)
	if err != nil {
		return err
	}

	var item CartItem
	if raw, ok := fields["id"]; ok {
		if item.ID, err = decodeID(raw); err != nil {
			return fmt.Errorf("item id: %w", err)
		}
	}
	if raw, ok := fields["dish"]; ok {
		if err := json.Unmarshal(raw, &item.Dish); err != nil {
			return err
		}
	}
	if raw, ok := fields["quantity"]; ok {
		if err := json.Unmarshal(raw, &item.Quantity); err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
	}
	if raw, ok := fields["totalPrice"]; ok {
		if err := item.TotalPrice.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("totalPrice: %w", err)
		}
	}

	for _, known := range []string{"id", "dish", "quantity", "totalPrice"} {
		delete(fields, known)
	}
	item.Fields = nilIfEmpty(fields)

	*i = item
	return nil
}

func marshalWithFields(extra map[string]json.RawMessage, known map[string]interface{}) ([]byte, error) {
	out := make(map[string]interface{}, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

func splitFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("expected a JSON object")
	}
	return fields, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func nilIfEmpty(fields map[string]json.RawMessage) map[string]json.RawMessage {
	if len(fields) == 0 {
		return nil
	}
	return fields
}
