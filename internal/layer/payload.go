package layer

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
)

// Payload is the immutable, kind-specific data of a layer.
// The zero value is an empty payload.
type Payload struct {
	fields  map[string]any
	shallow []string
}

// NewPayload returns a payload holding a deep copy of fields.
func NewPayload(fields map[string]any) Payload {
	if len(fields) == 0 {
		return Payload{}
	}
	p := Payload{fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		c, ok := CloneValue(v)
		p.fields[k] = c
		if !ok {
			p.shallow = append(p.shallow, k)
		}
	}
	sort.Strings(p.shallow)
	return p
}

// Len returns the number of fields.
func (p Payload) Len() int {
	return len(p.fields)
}

// Has reports whether key is present.
func (p Payload) Has(key string) bool {
	_, ok := p.fields[key]
	return ok
}

// Keys returns the field names in sorted order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a copy of the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	v, ok := p.fields[key]
	if !ok {
		return nil, false
	}
	c, _ := CloneValue(v)
	return c, true
}

// Float returns the numeric value stored under key.
func (p Payload) Float(key string) (float64, bool) {
	return toFloat(p.fields[key])
}

// FloatOr returns the numeric value stored under key, or def.
func (p Payload) FloatOr(key string, def float64) float64 {
	if f, ok := p.Float(key); ok {
		return f
	}
	return def
}

// Bool returns the boolean stored under key, or def.
func (p Payload) Bool(key string, def bool) bool {
	if b, ok := p.fields[key].(bool); ok {
		return b
	}
	return def
}

// String returns the string stored under key, or "".
func (p Payload) String(key string) string {
	s, _ := p.fields[key].(string)
	return s
}

// Map returns a copy of the nested object stored under key.
// It returns nil if the value is not an object.
func (p Payload) Map(key string) map[string]any {
	m, ok := p.fields[key].(map[string]any)
	if !ok {
		return nil
	}
	c, _ := CloneValue(m)
	return c.(map[string]any)
}

// With returns a new payload with fields shallow-merged over p.
// Nested objects are replaced, not merged.
func (p Payload) With(fields map[string]any) Payload {
	if len(fields) == 0 {
		return p
	}
	out := Payload{fields: make(map[string]any, len(p.fields)+len(fields))}
	for k, v := range p.fields {
		out.fields[k] = v
	}
	shallow := make(map[string]bool, len(p.shallow))
	for _, k := range p.shallow {
		shallow[k] = true
	}
	for k, v := range fields {
		c, ok := CloneValue(v)
		out.fields[k] = c
		shallow[k] = !ok
	}
	for k, s := range shallow {
		if s {
			out.shallow = append(out.shallow, k)
		}
	}
	sort.Strings(out.shallow)
	return out
}

// Without returns a new payload with keys removed.
func (p Payload) Without(keys ...string) Payload {
	out := Payload{fields: make(map[string]any, len(p.fields))}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	for k, v := range p.fields {
		if !drop[k] {
			out.fields[k] = v
		}
	}
	for _, k := range p.shallow {
		if !drop[k] {
			out.shallow = append(out.shallow, k)
		}
	}
	return out
}

// ToMap returns a deep copy of the payload fields.
func (p Payload) ToMap() map[string]any {
	out := make(map[string]any, len(p.fields))
	for k, v := range p.fields {
		c, _ := CloneValue(v)
		out[k] = c
	}
	return out
}

// Same reports whether p and q share storage. Payloads that are Same are
// equal; the converse does not hold.
func (p Payload) Same(q Payload) bool {
	return reflect.ValueOf(p.fields).Pointer() == reflect.ValueOf(q.fields).Pointer()
}

// ShallowKeys returns the keys whose values could not be deep-copied.
func (p Payload) ShallowKeys() []string {
	if len(p.shallow) == 0 {
		return nil
	}
	out := make([]string, len(p.shallow))
	copy(out, p.shallow)
	return out
}

// MarshalJSON implements json.Marshaler. Keys are emitted in sorted order.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = NewPayload(fields)
	return nil
}

// toFloat converts any Go numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
