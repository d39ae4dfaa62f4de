// Package auspice implements the tagged sum type and pass-through tree
// model described in §6 (Auspice tree JSON output) and §12's supplemented
// "Auspice JSON tagged sum type" feature.
//
// DESIGN NOTES calls for replacing the source's
// shared_ptr<VariantOf<array, bool, object, number, integer, string>> with
// a tagged sum type; Value below is that migration, modelled on the
// Kind-plus-one-field-per-case shape the teacher uses for its own small
// closed sets (e.g. genemap.Strand's closed byte enum, generalized to a
// seven-way sum). An input tree is decoded into a Node tree built entirely
// out of Value, so that re-encoding a subtree nothing in this package
// touched reproduces its keys in their original order and its values.
// The output is not byte-identical to the input: formatting whitespace and
// the original spelling of numbers are not kept, and a node's "name" is
// always written first and its "children" last.
package auspice

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Kind discriminates the cases of Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInteger
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged sum type standing in for the source's
// shared_ptr<VariantOf<...>>: exactly one of the typed fields is
// meaningful, selected by Kind. KindNone is an explicit "absent" case, not
// a null pointer (per DESIGN NOTES).
type Value struct {
	Kind    Kind
	Bool    bool
	Integer int64
	Number  float64
	String  string
	Array   []Value
	Object  *Object
}

// Object is an order-preserving string-keyed map of Value, so that
// round-tripping an Auspice node's attribute object does not reorder its
// keys.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or replaces the value at key, preserving first-seen key
// order.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value at key, and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in first-seen order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Bool, Integer, Number and String construct scalar Values.
func Bool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func Integer(i int64) Value   { return Value{Kind: KindInteger, Integer: i} }
func Number(f float64) Value  { return Value{Kind: KindNumber, Number: f} }
func String(s string) Value   { return Value{Kind: KindString, String: s} }
func ArrayOf(v []Value) Value { return Value{Kind: KindArray, Array: v} }
func ObjectOf(o *Object) Value {
	return Value{Kind: KindObject, Object: o}
}

// None is the explicit absence value.
var None = Value{Kind: KindNone}

// UnmarshalJSON decodes arbitrary JSON into the matching Value case,
// preserving object key order (encoding/json's map decoding does not, so
// this walks json.Decoder tokens directly rather than unmarshalling into
// map[string]interface{}).
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "auspice: decode value")
	}
	val, err := decodeValue(dec, tok)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// MarshalJSON encodes v back to JSON, round-tripping object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNone:
		return []byte("null"), nil
	case KindBool:
		if v.Bool {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindInteger:
		return json.Marshal(v.Integer)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindString:
		return json.Marshal(v.String)
	case KindArray:
		buf := []byte{'['}
		for i, e := range v.Array {
			if i > 0 {
				buf = append(buf, ',')
			}
			eb, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, eb...)
		}
		return append(buf, ']'), nil
	case KindObject:
		buf := []byte{'{'}
		if v.Object != nil {
			for i, k := range v.Object.keys {
				if i > 0 {
					buf = append(buf, ',')
				}
				kb, err := json.Marshal(k)
				if err != nil {
					return nil, err
				}
				buf = append(buf, kb...)
				buf = append(buf, ':')
				vb, err := v.Object.values[k].MarshalJSON()
				if err != nil {
					return nil, err
				}
				buf = append(buf, vb...)
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, errors.Errorf("auspice: unknown Value.Kind %d", v.Kind)
	}
}

func decodeValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return None, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, errors.Wrapf(err, "auspice: invalid number %q", t.String())
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '[':
			var arr []Value
			for dec.More() {
				elemTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				elem, err := decodeValue(dec, elemTok)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, elem)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return ArrayOf(arr), nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, errors.Errorf("auspice: object key is not a string: %v", keyTok)
				}
				valTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				val, err := decodeValue(dec, valTok)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return ObjectOf(obj), nil
		}
	}
	return Value{}, errors.Errorf("auspice: unexpected token %v (%T)", tok, tok)
}
