package actionEncoder

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// FromGo converts a Go value into a Value.
//
// Value and *Record pass through. Scalars, *big.Int, json.Number, slices and
// arrays convert element by element. Structs follow their msgpack tags: field
// declaration order is the key order, `-` skips a field, omitempty fields
// holding their zero value are absent, and untagged embedded structs are
// inlined. Types implementing encoding.TextMarshaler (common.Address, for
// one) become strings.
//
// Maps are rejected at any depth, since Go gives them no key order. Byte
// slices are rejected because actions carry no binary data. A pointer that
// leads back to itself returns ErrCyclicValue.
func FromGo(x interface{}) (Value, error) {
	c := &goConverter{visiting: make(map[visitKey]struct{})}
	return c.convert(reflect.ValueOf(x), "$", 0)
}

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// goConverter tracks the pointers on the current path so shared values are
// allowed but loops are not.
type goConverter struct {
	visiting map[visitKey]struct{}
}

func (c *goConverter) convert(rv reflect.Value, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &EncodingError{Path: path, Err: ErrMaxDepthExceeded}
	}
	if !rv.IsValid() {
		return Null(), nil
	}

	if v, ok, err := c.known(rv, path); ok {
		return v, err
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.convert(rv.Elem(), path, depth+1)
	case reflect.Ptr:
		if rv.IsNil() {
			return Null(), nil
		}
		key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
		if _, ok := c.visiting[key]; ok {
			return Value{}, &EncodingError{Path: path, Err: ErrCyclicValue}
		}
		c.visiting[key] = struct{}{}
		defer delete(c.visiting, key)
		return c.convert(rv.Elem(), path, depth+1)
	case reflect.Map:
		return Value{}, &EncodingError{Path: path, Err: ErrUnorderedMap}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Value{}, newEncodingError(path, "%w: binary data", ErrUnsupportedType)
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		elems := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := c.convert(rv.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Array(elems...), nil
	case reflect.Struct:
		r := NewRecord()
		if err := c.structFields(r, rv, path, depth); err != nil {
			return Value{}, err
		}
		return RecordValue(r), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	default:
		return Value{}, newEncodingError(path, "%w: %s", ErrUnsupportedType, rv.Type())
	}
}

// known handles the types with their own conversion. ok is false when rv
// should be walked by kind instead.
func (c *goConverter) known(rv reflect.Value, path string) (Value, bool, error) {
	if !rv.CanInterface() {
		return Value{}, false, nil
	}

	switch t := rv.Interface().(type) {
	case Value:
		return t, true, nil
	case *Value:
		if t == nil {
			return Null(), true, nil
		}
		return *t, true, nil
	case *Record:
		return RecordValue(t), true, nil
	case *big.Int:
		return BigInt(t), true, nil
	case big.Int:
		return BigInt(&t), true, nil
	case json.Number:
		v, err := numberValue(t)
		if err != nil {
			return Value{}, true, &EncodingError{Path: path, Err: err}
		}
		return v, true, nil
	}

	if rv.Kind() != reflect.Ptr && rv.Kind() != reflect.Interface && rv.Type().Implements(textMarshalerType) {
		text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return Value{}, true, &EncodingError{Path: path, Err: err}
		}
		return String(string(text)), true, nil
	}
	return Value{}, false, nil
}

// structFields appends the fields of rv to r in declaration order.
func (c *goConverter) structFields(r *Record, rv reflect.Value, path string, depth int) error {
	if depth > MaxDepth {
		return &EncodingError{Path: path, Err: ErrMaxDepthExceeded}
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name, omitEmpty, inline, skip := msgpackTag(sf)
		if skip {
			continue
		}
		fv := rv.Field(i)

		if inline {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if err := c.structFields(r, fv, path, depth+1); err != nil {
				return err
			}
			continue
		}

		if omitEmpty && isEmptyValue(fv) {
			r.Set(name, Absent())
			continue
		}
		v, err := c.convert(fv, path+"."+name, depth+1)
		if err != nil {
			return err
		}
		r.Set(name, v)
	}
	return nil
}

// msgpackTag reads a field's `msgpack:"name,omitempty"` tag. Unexported
// fields are skipped, embedded ones included.
func msgpackTag(sf reflect.StructField) (name string, omitEmpty, inline, skip bool) {
	tag := sf.Tag.Get("msgpack")
	if tag == "-" || !sf.IsExported() {
		return "", false, false, true
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		switch opt {
		case "omitempty":
			omitEmpty = true
		case "inline":
			inline = true
		}
	}

	ft := sf.Type
	if ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}
	if sf.Anonymous && name == "" && ft.Kind() == reflect.Struct {
		inline = true
	}
	if inline && ft.Kind() != reflect.Struct {
		inline = false
	}
	if name == "" {
		name = sf.Name
	}
	return name, omitEmpty, inline, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}
