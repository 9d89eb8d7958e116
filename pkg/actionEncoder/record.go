package actionEncoder

// Field is a single key/value pair of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is a map whose keys keep the order they were first set in. The
// encoded bytes, and therefore the action hash, depend on that order.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// Set assigns key. Re-assigning an existing key keeps its original position.
func (r *Record) Set(key string, v Value) *Record {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = v
		return r
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: v})
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil || r.index == nil {
		return Value{}, false
	}
	i, ok := r.index[key]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Delete removes key; the fields after it keep their relative order.
func (r *Record) Delete(key string) *Record {
	i, ok := r.index[key]
	if !ok {
		return r
	}
	r.fields = append(r.fields[:i], r.fields[i+1:]...)
	delete(r.index, key)
	for j := i; j < len(r.fields); j++ {
		r.index[r.fields[j].Key] = j
	}
	return r
}

// Len is the number of fields, Absent ones included.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in insertion order.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Clone is a shallow copy: nested records are shared.
func (r *Record) Clone() *Record {
	c := NewRecord()
	for _, f := range r.Fields() {
		c.Set(f.Key, f.Value)
	}
	return c
}
