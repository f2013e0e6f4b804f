package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidPayload is wrapped by every Decode error.
var ErrInvalidPayload = errors.New("record: invalid payload")

// Shape describes where records live inside a JSON payload.
type Shape struct {
	// ResultsPath is a gjson path to the collection. Empty means the payload
	// itself is the collection.
	ResultsPath string
	// IDField is the gjson path of the identifier inside each item. Defaults
	// to "id".
	IDField string
	// AttributesPath selects a nested object holding the attributes, such as
	// "fields" for Airtable. Empty means the item itself.
	AttributesPath string
}

// Decode extracts the record collection from payload. The whole payload is
// validated before any record is returned, so a truncated or malformed body
// yields no records.
func Decode(payload []byte, shape Shape) ([]Record, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}

	collection := gjson.ParseBytes(payload)
	if path := strings.TrimSpace(shape.ResultsPath); path != "" {
		collection = collection.Get(path)
		if !collection.Exists() {
			return nil, fmt.Errorf("%w: results path %q not found", ErrInvalidPayload, path)
		}
	}
	if !collection.IsArray() {
		return nil, fmt.Errorf("%w: expected a collection, got %s", ErrInvalidPayload, collection.Type)
	}

	idField := strings.TrimSpace(shape.IDField)
	if idField == "" {
		idField = "id"
	}
	attrsPath := strings.TrimSpace(shape.AttributesPath)

	var (
		out    []Record
		decErr error
	)
	index := 0
	collection.ForEach(func(_, item gjson.Result) bool {
		rec, err := decodeItem(item, idField, attrsPath)
		if err != nil {
			decErr = fmt.Errorf("%w: item %d: %v", ErrInvalidPayload, index, err)
			return false
		}
		out = append(out, rec)
		index++
		return true
	})
	if decErr != nil {
		return nil, decErr
	}
	return out, nil
}

func decodeItem(item gjson.Result, idField, attrsPath string) (Record, error) {
	if !item.IsObject() {
		return Record{}, fmt.Errorf("expected an object, got %s", item.Type)
	}

	id := item.Get(idField)
	if !id.Exists() || strings.TrimSpace(id.String()) == "" {
		return Record{}, fmt.Errorf("missing identifier %q", idField)
	}

	source := item
	if attrsPath != "" {
		source = item.Get(attrsPath)
		if !source.Exists() {
			return Record{ID: id.String(), Attributes: map[string]any{}}, nil
		}
		if !source.IsObject() {
			return Record{}, fmt.Errorf("attributes %q is not an object", attrsPath)
		}
	}

	attrs, _ := source.Value().(map[string]any)
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Record{ID: strings.TrimSpace(id.String()), Attributes: attrs}, nil
}
