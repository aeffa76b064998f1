package script

import (
	"fmt"
	"math"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// toGo converts a Lua value to a Go value. Numbers become float64.
// Functions, userdata and cyclic references become nil.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && count == n {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoVisited(v, visited)
	})
	return m
}

// tableFields converts a Lua table argument into payload fields.
func tableFields(t *lua.LTable) map[string]any {
	if t == nil {
		return nil
	}
	m, ok := tableToGo(t, map[*lua.LTable]bool{t: true}).(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// toLua converts a Go value to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case []string:
		t := L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, lua.LString(item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, val[k]))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// number converts f for Lua, keeping infinities.
func number(f float64) lua.LNumber {
	if math.IsNaN(f) {
		return 0
	}
	return lua.LNumber(f)
}
