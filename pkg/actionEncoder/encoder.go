package actionEncoder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var _ msgpack.CustomEncoder = Value{}

// Encode converts action with FromGo and returns the MessagePack bytes of
// its canonical form.
func Encode(action interface{}) ([]byte, error) {
	v, err := FromGo(action)
	if err != nil {
		return nil, err
	}
	return EncodeValue(v)
}

// EncodeValue canonicalises v and serialises it. Records are written as maps
// in insertion order and integers in their most compact MessagePack form.
func EncodeValue(v Value) ([]byte, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	if canonical.kind == KindAbsent {
		return nil, newEncodingError("$", "%w: action is absent", ErrUnsupportedType)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := canonical.EncodeMsgpack(enc); err != nil {
		var encErr *EncodingError
		if errors.As(err, &encErr) {
			return nil, err
		}
		return nil, &EncodingError{Path: "$", Err: err}
	}
	return buf.Bytes(), nil
}

// EncodeMsgpack writes v as-is. Call Canonicalize first when the tree may
// contain Absent values or BigInt/Float integers; EncodeValue does both.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindAbsent, KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindInt:
		return enc.EncodeInt(v.i)
	case KindUint:
		return enc.EncodeUint(v.u)
	case KindBigInt:
		w, err := widenBigInt(v.bi, "$")
		if err != nil {
			return err
		}
		return w.EncodeMsgpack(enc)
	case KindFloat:
		return enc.EncodeFloat64(v.f)
	case KindString:
		return enc.EncodeString(v.s)
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.arr)); err != nil {
			return err
		}
		for _, elem := range v.arr {
			if err := elem.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	case KindRecord:
		if v.rec == nil {
			return enc.EncodeNil()
		}
		if err := enc.EncodeMapLen(len(v.rec.fields)); err != nil {
			return err
		}
		for _, f := range v.rec.fields {
			if err := enc.EncodeString(f.Key); err != nil {
				return err
			}
			if err := f.Value.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %s", ErrUnsupportedType, v.kind)
	}
}
