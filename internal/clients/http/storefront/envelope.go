package storefront

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Shape tags the envelope a list response arrived in.
type Shape int

const (
	// ShapeUnknown means no sequence was found; callers get an empty list.
	ShapeUnknown Shape = iota
	// ShapeBare is a top-level JSON array.
	ShapeBare
	// ShapeEnvelope is an object exposing the array under a known field.
	ShapeEnvelope
)

func (s Shape) String() string {
	switch s {
	case ShapeBare:
		return "bare"
	case ShapeEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// Envelope field names probed per endpoint, in order.
var (
	productFields     = []string{"products", "data"}
	transactionFields = []string{"transactions", "data"}
	summaryFields     = []string{"transactions", "summary", "data"}
)

// matchList finds the sequence in body: the payload itself when it is an
// array, else the first of fields that holds an array.
func matchList(body []byte, fields ...string) (gjson.Result, Shape) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, ShapeUnknown
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root, ShapeBare
	}
	if !root.IsObject() {
		return gjson.Result{}, ShapeUnknown
	}
	for _, field := range fields {
		if v := root.Get(gjson.Escape(field)); v.IsArray() {
			return v, ShapeEnvelope
		}
	}
	return gjson.Result{}, ShapeUnknown
}

// decodeList decodes each element independently. Elements that fail to decode
// are skipped and counted; an unknown shape yields an empty, non-nil slice.
func decodeList[T any](body []byte, fields ...string) ([]T, Shape, int) {
	list, shape := matchList(body, fields...)
	out := []T{}
	if shape == ShapeUnknown {
		return out, shape, 0
	}
	skipped := 0
	list.ForEach(func(_, item gjson.Result) bool {
		var v T
		if !item.IsObject() {
			skipped++
			return true
		}
		if err := json.Unmarshal([]byte(item.Raw), &v); err != nil {
			skipped++
			return true
		}
		out = append(out, v)
		return true
	})
	return out, shape, skipped
}

// decodeObject decodes a single record, unwrapping it from the first of
// fields that holds an object.
func decodeObject[T any](body []byte, fields ...string) (T, error) {
	var v T
	if !gjson.ValidBytes(body) {
		return v, fmt.Errorf("%w: body is not JSON", ErrDecode)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return v, fmt.Errorf("%w: expected an object", ErrDecode)
	}
	raw := root.Raw
	for _, field := range fields {
		if inner := root.Get(gjson.Escape(field)); inner.IsObject() {
			raw = inner.Raw
			break
		}
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return v, nil
}
