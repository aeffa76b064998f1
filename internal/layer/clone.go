package layer

import (
	"reflect"
	"time"
)

// Cloner is implemented by payload values that know how to copy themselves.
type Cloner interface {
	Clone() any
}

// CloneValue returns a deep copy of v.
//
// The second result is false when some part of v could not be copied
// (functions, channels, unsafe pointers, structs with unexported fields,
// values that refer back to themselves). Those parts are shared with v
// instead, so the copy is still usable but may observe later mutation
// through them.
func CloneValue(v any) (any, bool) {
	var c cloner
	return c.value(v)
}

// visit identifies a map, slice or pointer by address and type.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

// cloner tracks the containers on the current copy path.
type cloner struct {
	path map[visit]bool
}

// enter marks rv as being copied. It reports false when rv is already on
// the path, meaning it contains itself.
func (c *cloner) enter(rv reflect.Value) (visit, bool) {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if c.path[k] {
		return k, false
	}
	if c.path == nil {
		c.path = make(map[visit]bool)
	}
	c.path[k] = true
	return k, true
}

func (c *cloner) leave(k visit) {
	delete(c.path, k)
}

func (c *cloner) value(v any) (any, bool) {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time, time.Duration:
		return v, true
	case Payload:
		// Already immutable.
		return t, true
	case Cloner:
		return t.Clone(), true
	case map[string]any:
		if t == nil {
			return t, true
		}
		k, fresh := c.enter(reflect.ValueOf(t))
		if !fresh {
			return t, false
		}
		defer c.leave(k)
		out := make(map[string]any, len(t))
		ok := true
		for key, val := range t {
			cv, cok := c.value(val)
			out[key] = cv
			ok = ok && cok
		}
		return out, ok
	case []any:
		if len(t) == 0 {
			return make([]any, 0), true
		}
		k, fresh := c.enter(reflect.ValueOf(t))
		if !fresh {
			return t, false
		}
		defer c.leave(k)
		out := make([]any, len(t))
		ok := true
		for i, val := range t {
			cv, cok := c.value(val)
			out[i] = cv
			ok = ok && cok
		}
		return out, ok
	}

	rv := reflect.ValueOf(v)
	cv, ok := c.reflectValue(rv)
	if !cv.IsValid() {
		return v, false
	}
	return cv.Interface(), ok
}

// reflectValue deep-copies rv using reflection.
func (c *cloner) reflectValue(rv reflect.Value) (reflect.Value, bool) {
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return rv, true

	case reflect.Slice:
		if rv.IsNil() {
			return rv, true
		}
		if rv.Len() > 0 {
			k, fresh := c.enter(rv)
			if !fresh {
				return rv, false
			}
			defer c.leave(k)
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		ok := true
		for i := 0; i < rv.Len(); i++ {
			cv, cok := c.reflectValue(rv.Index(i))
			out.Index(i).Set(cv)
			ok = ok && cok
		}
		return out, ok

	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		ok := true
		for i := 0; i < rv.Len(); i++ {
			cv, cok := c.reflectValue(rv.Index(i))
			out.Index(i).Set(cv)
			ok = ok && cok
		}
		return out, ok

	case reflect.Map:
		if rv.IsNil() {
			return rv, true
		}
		k, fresh := c.enter(rv)
		if !fresh {
			return rv, false
		}
		defer c.leave(k)
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		ok := true
		iter := rv.MapRange()
		for iter.Next() {
			cv, cok := c.reflectValue(iter.Value())
			out.SetMapIndex(iter.Key(), cv)
			ok = ok && cok
		}
		return out, ok

	case reflect.Pointer:
		if rv.IsNil() {
			return rv, true
		}
		k, fresh := c.enter(rv)
		if !fresh {
			return rv, false
		}
		defer c.leave(k)
		cv, ok := c.reflectValue(rv.Elem())
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(cv)
		return out, ok

	case reflect.Interface:
		if rv.IsNil() {
			return rv, true
		}
		cv, ok := c.value(rv.Elem().Interface())
		out := reflect.New(rv.Type()).Elem()
		if cv != nil {
			out.Set(reflect.ValueOf(cv))
		}
		return out, ok

	case reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		out.Set(rv)
		ok := true
		for i := 0; i < rv.NumField(); i++ {
			if !rv.Type().Field(i).IsExported() {
				ok = false
				continue
			}
			cv, cok := c.reflectValue(rv.Field(i))
			out.Field(i).Set(cv)
			ok = ok && cok
		}
		return out, ok

	default:
		// Func, Chan, UnsafePointer.
		return rv, false
	}
}
