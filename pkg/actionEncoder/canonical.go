package actionEncoder

import (
	"fmt"
	"math"
	"math/big"
)

const MaxDepth = 512

var (
	minInt64  = big.NewInt(math.MinInt64)
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
)

// Canonicalize returns the tree that is actually serialised:
//   - record fields holding Absent are removed, Absent array elements become Null
//   - every integral number is an exact Int or Uint, including BigInt values
//     and floats without a fractional part
//
// Integers outside the 64-bit range, cycles and trees deeper than MaxDepth
// return an *EncodingError.
func Canonicalize(v Value) (Value, error) {
	c := &canonicalizer{visiting: make(map[*Record]struct{})}
	return c.value(v, "$", 0)
}

type canonicalizer struct {
	visiting map[*Record]struct{}
}

func (c *canonicalizer) value(v Value, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &EncodingError{Path: path, Err: ErrMaxDepthExceeded}
	}

	switch v.kind {
	case KindAbsent, KindNull, KindBool, KindInt, KindUint, KindString:
		return v, nil
	case KindBigInt:
		return widenBigInt(v.bi, path)
	case KindFloat:
		return widenFloat(v.f), nil
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, elem := range v.arr {
			if elem.kind == KindAbsent {
				out[i] = Null()
				continue
			}
			cv, err := c.value(elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
			out[i] = cv
		}
		return Array(out...), nil
	case KindRecord:
		if v.rec == nil {
			return Null(), nil
		}
		if _, ok := c.visiting[v.rec]; ok {
			return Value{}, &EncodingError{Path: path, Err: ErrCyclicValue}
		}
		c.visiting[v.rec] = struct{}{}
		defer delete(c.visiting, v.rec)

		out := NewRecord()
		for _, f := range v.rec.fields {
			if f.Value.kind == KindAbsent {
				continue
			}
			cv, err := c.value(f.Value, path+"."+f.Key, depth+1)
			if err != nil {
				return Value{}, err
			}
			out.Set(f.Key, cv)
		}
		return RecordValue(out), nil
	default:
		return Value{}, newEncodingError(path, "%w: kind %s", ErrUnsupportedType, v.kind)
	}
}

func widenBigInt(n *big.Int, path string) (Value, error) {
	if n == nil {
		return Null(), nil
	}
	if n.IsInt64() {
		return Int(n.Int64()), nil
	}
	if n.Sign() > 0 && n.Cmp(maxUint64) <= 0 {
		return Uint(n.Uint64()), nil
	}
	return Value{}, newEncodingError(path, "%w: %s", ErrIntegerOverflow, n.String())
}

// widenFloat turns floats that hold an integer into exact integers, so 1.0
// and 1 encode the same way. Floats beyond the 64-bit range, fractions,
// NaN and infinities stay floats.
func widenFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Float(f)
	}
	if f >= -(1<<63) && f < (1<<63) {
		return Int(int64(f))
	}
	if f >= 0 && f < (1<<64) {
		return Uint(uint64(f))
	}
	return Float(f)
}
