package actionEncoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Decode parses MessagePack bytes into a Value, keeping map keys in the
// order they appear on the wire. Map keys must be strings; binary and
// extension types are rejected.
func Decode(data []byte) (Value, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec, "$", 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.PeekCode(); !errors.Is(err, io.EOF) {
		return Value{}, newEncodingError("$", "trailing data after value")
	}
	return v, nil
}

func decodeValue(dec *msgpack.Decoder, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &EncodingError{Path: path, Err: ErrMaxDepthExceeded}
	}

	code, err := dec.PeekCode()
	if err != nil {
		return Value{}, &EncodingError{Path: path, Err: err}
	}

	wrap := func(v Value, err error) (Value, error) {
		if err != nil {
			return Value{}, &EncodingError{Path: path, Err: err}
		}
		return v, nil
	}

	switch {
	case code == msgpcode.Nil:
		return wrap(Null(), dec.DecodeNil())
	case code == msgpcode.True || code == msgpcode.False:
		b, err := dec.DecodeBool()
		return wrap(Bool(b), err)
	case code <= msgpcode.PosFixedNumHigh ||
		code == msgpcode.Uint8 || code == msgpcode.Uint16 ||
		code == msgpcode.Uint32 || code == msgpcode.Uint64:
		u, err := dec.DecodeUint64()
		if err != nil {
			return Value{}, &EncodingError{Path: path, Err: err}
		}
		if u <= 1<<63-1 {
			return Int(int64(u)), nil
		}
		return Uint(u), nil
	case code >= msgpcode.NegFixedNumLow ||
		code == msgpcode.Int8 || code == msgpcode.Int16 ||
		code == msgpcode.Int32 || code == msgpcode.Int64:
		i, err := dec.DecodeInt64()
		return wrap(Int(i), err)
	case code == msgpcode.Float || code == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		return wrap(Float(f), err)
	case msgpcode.IsString(code):
		s, err := dec.DecodeString()
		return wrap(String(s), err)
	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return Value{}, &EncodingError{Path: path, Err: err}
		}
		elems := make([]Value, n)
		for i := 0; i < n; i++ {
			elems[i], err = decodeValue(dec, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
		}
		return Array(elems...), nil
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return Value{}, &EncodingError{Path: path, Err: err}
		}
		rec := NewRecord()
		for i := 0; i < n; i++ {
			keyCode, err := dec.PeekCode()
			if err != nil {
				return Value{}, &EncodingError{Path: path, Err: err}
			}
			if !msgpcode.IsString(keyCode) {
				return Value{}, newEncodingError(path, "%w: map key code 0x%02x", ErrUnsupportedType, keyCode)
			}
			key, err := dec.DecodeString()
			if err != nil {
				return Value{}, &EncodingError{Path: path, Err: err}
			}
			v, err := decodeValue(dec, path+"."+key, depth+1)
			if err != nil {
				return Value{}, err
			}
			rec.Set(key, v)
		}
		return RecordValue(rec), nil
	default:
		return Value{}, newEncodingError(path, "%w: msgpack code 0x%02x", ErrUnsupportedType, code)
	}
}
