package actionEncoder

import (
	"fmt"
	"math/big"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindInt
	KindUint
	KindBigInt
	KindFloat
	KindString
	KindArray
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindBigInt:
		return "bigint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a node of an action tree. The zero Value is Absent: a record
// field holding it is dropped before encoding, unlike Null which is kept.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	bi   *big.Int
	f    float64
	s    string
	arr  []Value
	rec  *Record
}

// Absent is a missing value. Record fields holding it are not encoded.
func Absent() Value { return Value{} }

// Null is an explicit nil, encoded as MessagePack nil.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a signed integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Uint wraps an unsigned integer. Values above math.MaxInt64 are encoded as
// uint64.
func Uint(u uint64) Value { return Value{kind: KindUint, u: u} }

// Float wraps f. Integral floats are encoded as integers.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps vs as an ordered array. The slice is not copied.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// RecordValue wraps r. A nil r is Null.
func RecordValue(r *Record) Value {
	if r == nil {
		return Null()
	}
	return Value{kind: KindRecord, rec: r}
}

// BigInt copies n. A nil n is Null.
func BigInt(n *big.Int) Value {
	if n == nil {
		return Null()
	}
	return Value{kind: KindBigInt, bi: new(big.Int).Set(n)}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the zero Value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNull reports whether v is an explicit Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean held by a KindBool value, false otherwise.
func (v Value) Bool() bool { return v.b }

// Int returns the integer held by a KindInt value, 0 otherwise.
func (v Value) Int() int64 { return v.i }

// Uint returns the integer held by a KindUint value, 0 otherwise.
func (v Value) Uint() uint64 { return v.u }

// Float returns the number held by a KindFloat value, 0 otherwise.
func (v Value) Float() float64 { return v.f }

// Str returns the string held by a KindString value. String is taken by
// fmt.Stringer.
func (v Value) Str() string { return v.s }

// Elems returns the elements of a KindArray value. The slice is shared.
func (v Value) Elems() []Value { return v.arr }

// Record returns the record of a KindRecord value, nil otherwise.
func (v Value) Record() *Record { return v.rec }

// BigInt returns a copy of the integer held by a KindBigInt value.
func (v Value) BigInt() *big.Int {
	if v.bi == nil {
		return nil
	}
	return new(big.Int).Set(v.bi)
}

// AsBigInt returns the integer value of Int, Uint and BigInt values.
func (v Value) AsBigInt() (*big.Int, bool) {
	switch v.kind {
	case KindInt:
		return big.NewInt(v.i), true
	case KindUint:
		return new(big.Int).SetUint64(v.u), true
	case KindBigInt:
		return new(big.Int).Set(v.bi), true
	default:
		return nil, false
	}
}

// String renders v for logs and errors. Arrays and records are shown as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return "<absent>"
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindUint:
		return fmt.Sprintf("%d", v.u)
	case KindBigInt:
		return v.bi.String()
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("<%s>", v.kind)
		}
		return string(b)
	}
}
