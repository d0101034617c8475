package weather

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ColumnarDecoder turns a raw daily response into a ColumnarDataset.
type ColumnarDecoder struct {
	resolver *KeyResolver
}

// NewColumnarDecoder creates a decoder that interprets field names with resolver.
func NewColumnarDecoder(resolver *KeyResolver) *ColumnarDecoder {
	return &ColumnarDecoder{resolver: resolver}
}

// Decode parses the "daily" object of raw. "time" is read explicitly; every
// other key is resolved to (measure, model) and read as a sequence of
// nullable numbers. Any bad field fails the whole document.
func (d *ColumnarDecoder) Decode(raw []byte) (*ColumnarDataset, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	daily := gjson.GetBytes(raw, "daily")
	if !daily.Exists() || daily.Type == gjson.Null {
		return nil, fmt.Errorf("%w: no daily data in response", ErrMalformedResponse)
	}
	if !daily.IsObject() {
		return nil, fmt.Errorf("%w: daily is not an object", ErrMalformedResponse)
	}

	timeField := daily.Get("time")
	if !timeField.IsArray() {
		return nil, fmt.Errorf("%w: daily.time is missing or not an array", ErrMalformedResponse)
	}

	ds := &ColumnarDataset{
		Fields: make(map[MeasureAndModel][]*float64),
	}
	for i, t := range timeField.Array() {
		if t.Type != gjson.String {
			return nil, fmt.Errorf("%w: daily.time[%d] is not a string", ErrMalformedResponse, i)
		}
		ds.Time = append(ds.Time, t.Str)
	}

	var err error
	daily.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "time" {
			return true
		}

		var mm MeasureAndModel
		mm, err = d.resolver.Resolve(key.Str)
		if err != nil {
			err = fmt.Errorf("field %q: %w", key.Str, err)
			return false
		}

		var values []*float64
		values, err = decodeValues(key.Str, value)
		if err != nil {
			return false
		}
		ds.Fields[mm] = values
		return true
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

func decodeValues(field string, value gjson.Result) ([]*float64, error) {
	if !value.IsArray() {
		return nil, fmt.Errorf("%w: field %q is not an array", ErrMalformedResponse, field)
	}

	items := value.Array()
	values := make([]*float64, len(items))
	for i, item := range items {
		switch item.Type {
		case gjson.Null:
			// missing for this day
		case gjson.Number:
			v := item.Num
			values[i] = &v
		default:
			return nil, fmt.Errorf("%w: field %q[%d] is %s, want number or null", ErrMalformedResponse, field, i, item.Type)
		}
	}
	return values, nil
}
