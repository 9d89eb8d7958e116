package actionEncoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

// FromJSON parses a JSON document into a Value. Object keys keep their
// document order and integer literals keep full precision.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec, "$", 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, newEncodingError("$", "trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &EncodingError{Path: path, Err: ErrMaxDepthExceeded}
	}

	tok, err := dec.Token()
	if err != nil {
		return Value{}, &EncodingError{Path: path, Err: err}
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		v, err := numberValue(t)
		if err != nil {
			return Value{}, &EncodingError{Path: path, Err: err}
		}
		return v, nil
	case json.Delim:
		switch t {
		case '[':
			elems := make([]Value, 0)
			for i := 0; dec.More(); i++ {
				elem, err := decodeJSONValue(dec, fmt.Sprintf("%s[%d]", path, i), depth+1)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, elem)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, &EncodingError{Path: path, Err: err}
			}
			return Array(elems...), nil
		case '{':
			rec := NewRecord()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, &EncodingError{Path: path, Err: err}
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, newEncodingError(path, "unexpected object key %v", keyTok)
				}
				v, err := decodeJSONValue(dec, path+"."+key, depth+1)
				if err != nil {
					return Value{}, err
				}
				rec.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, &EncodingError{Path: path, Err: err}
			}
			return RecordValue(rec), nil
		}
	}
	return Value{}, newEncodingError(path, "unexpected JSON token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	if !strings.ContainsAny(s, ".eE") {
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Value{}, fmt.Errorf("invalid integer literal %q", s)
		}
		return BigInt(bi), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number literal %q: %w", s, err)
	}
	return Float(f), nil
}

// MarshalJSON writes records with their keys in insertion order. Absent
// record fields are skipped.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer, depth int) error {
	if depth > MaxDepth {
		return ErrMaxDepthExceeded
	}

	switch v.kind {
	case KindAbsent, KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindUint:
		buf.WriteString(strconv.FormatUint(v.u, 10))
	case KindBigInt:
		buf.WriteString(v.bi.String())
	case KindFloat:
		b, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := elem.writeJSON(buf, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindRecord:
		if v.rec == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		first := true
		for _, f := range v.rec.fields {
			if f.Value.kind == KindAbsent {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := f.Value.writeJSON(buf, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: kind %s", ErrUnsupportedType, v.kind)
	}
	return nil
}
