package script

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/input/key"
	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
)

// module builds the composer table.
func (h *Host) module() *lua.LTable {
	return h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"add":                  h.luaAdd,
		"update":               h.luaUpdate,
		"delete":               h.luaDelete,
		"select":               h.luaSelect,
		"selected":             h.luaSelected,
		"get":                  h.luaGet,
		"layers":               h.luaLayers,
		"toggle_visible":       h.idCommand(h.session.ToggleVisible),
		"toggle_locked":        h.idCommand(h.session.ToggleLocked),
		"bring_forward":        h.idCommand(h.session.BringForward),
		"send_backward":        h.idCommand(h.session.SendBackward),
		"bring_to_front":       h.idCommand(h.session.BringToFront),
		"send_to_back":         h.idCommand(h.session.SendToBack),
		"duplicate":            h.luaDuplicate,
		"undo":                 h.luaUndo,
		"redo":                 h.luaRedo,
		"flush":                h.luaFlush,
		"wait":                 h.luaWait,
		"history":              h.luaHistory,
		"group":                h.luaGroup,
		"set_canvas":           h.luaSetCanvas,
		"pointer":              h.luaPointer,
		"key":                  h.luaKey,
		"load_yaml":            h.luaLoadYAML,
		"load_file":            h.luaLoadFile,
		"dump_yaml":            h.luaDumpYAML,
		"set_sticker_category": h.luaSetCategory,
	})
}

// composer.add(kind [, fields]) -> id
func (h *Host) luaAdd(L *lua.LState) int {
	k, err := layer.ParseKind(L.CheckString(1))
	if err != nil || !k.IsElement() {
		L.ArgError(1, fmt.Sprintf("unknown layer kind %q", L.CheckString(1)))
		return 0
	}
	id := h.session.Add(k, tableFields(L.OptTable(2, nil)))
	L.Push(lua.LString(id))
	return 1
}

// composer.update(id, fields)
func (h *Host) luaUpdate(L *lua.LState) int {
	id := L.CheckString(1)
	fields := tableFields(L.CheckTable(2))
	h.session.Update(id, layer.Patch(fields))
	return 0
}

// composer.delete([id]) deletes id, or the selected layer.
func (h *Host) luaDelete(L *lua.LState) int {
	if id := L.OptString(1, ""); id != "" {
		h.session.Delete(id)
	} else {
		h.session.DeleteSelected()
	}
	return 0
}

// composer.select([id]) selects id, or clears the selection.
func (h *Host) luaSelect(L *lua.LState) int {
	h.session.Select(L.OptString(1, ""))
	return 0
}

// composer.selected() -> id or nil
func (h *Host) luaSelected(L *lua.LState) int {
	if id := h.session.SelectedID(); id != "" {
		L.Push(lua.LString(id))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// composer.get(id) -> layer table or nil
func (h *Host) luaGet(L *lua.LState) int {
	l, ok := h.session.Layer(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(layerTable(L, l))
	return 1
}

// composer.layers() -> array of layer tables, bottom first
func (h *Host) luaLayers(L *lua.LState) int {
	layers := h.session.Layers()
	t := L.CreateTable(len(layers), 0)
	for i, l := range layers {
		t.RawSetInt(i+1, layerTable(L, l))
	}
	L.Push(t)
	return 1
}

func (h *Host) idCommand(fn func(id string)) lua.LGFunction {
	return func(L *lua.LState) int {
		fn(L.CheckString(1))
		return 0
	}
}

// composer.duplicate(id) -> id or nil
func (h *Host) luaDuplicate(L *lua.LState) int {
	if id := h.session.Duplicate(L.CheckString(1)); id != "" {
		L.Push(lua.LString(id))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// composer.undo() -> bool
func (h *Host) luaUndo(L *lua.LState) int {
	L.Push(lua.LBool(h.session.Undo() == nil))
	return 1
}

// composer.redo() -> bool
func (h *Host) luaRedo(L *lua.LState) int {
	L.Push(lua.LBool(h.session.Redo() == nil))
	return 1
}

// composer.flush() -> bool commits the open burst as one undo step.
func (h *Host) luaFlush(L *lua.LState) int {
	L.Push(lua.LBool(h.session.Flush()))
	return 1
}

// composer.wait(ms)
func (h *Host) luaWait(L *lua.LState) int {
	ms := L.CheckNumber(1)
	if ms < 0 {
		L.ArgError(1, "negative duration")
		return 0
	}
	h.sleep(time.Duration(float64(ms) * float64(time.Millisecond)))
	return 0
}

// composer.history() -> {undo = n, redo = n, undo_label = s, redo_label = s, labels = {...}}
//
// labels lists the undo entries oldest first.
func (h *Host) luaHistory(L *lua.LState) int {
	st := h.session.History()
	t := L.CreateTable(0, 5)
	t.RawSetString("undo", lua.LNumber(st.UndoCount()))
	t.RawSetString("redo", lua.LNumber(st.RedoCount()))
	if info, ok := st.PeekUndo(); ok {
		t.RawSetString("undo_label", lua.LString(info.Label))
	}
	if info, ok := st.PeekRedo(); ok {
		t.RawSetString("redo_label", lua.LString(info.Label))
	}
	entries := st.UndoInfo()
	labels := L.CreateTable(len(entries), 0)
	for _, info := range entries {
		labels.Append(lua.LString(info.Label))
	}
	t.RawSetString("labels", labels)
	L.Push(t)
	return 1
}

// composer.group(label, fn) runs fn so that its edits undo as one step.
func (h *Host) luaGroup(L *lua.LState) int {
	label := L.CheckString(1)
	fn := L.CheckFunction(2)

	var err error
	h.session.Group(label, func() {
		err = L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
	if err != nil {
		L.RaiseError("group %s: %s", label, luaMessage(err))
	}
	return 0
}

// composer.set_canvas(width, height)
func (h *Host) luaSetCanvas(L *lua.LState) int {
	w, ht := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
	h.session.SetCanvas(pointer.Rect{Width: w, Height: ht})
	return 0
}

// composer.pointer(action, x, y [, modifiers]) -> consumed
//
// action is "down", "move", "up" or "cancel"; modifiers is a chord prefix
// such as "shift" or "ctrl+alt".
func (h *Host) luaPointer(L *lua.LState) int {
	var action pointer.Action
	switch strings.ToLower(L.CheckString(1)) {
	case "down":
		action = pointer.ActionDown
	case "move":
		action = pointer.ActionMove
	case "up":
		action = pointer.ActionUp
	case "cancel":
		action = pointer.ActionCancel
	default:
		L.ArgError(1, fmt.Sprintf("unknown pointer action %q", L.CheckString(1)))
		return 0
	}

	var mods key.Modifier
	if s := L.OptString(4, ""); s != "" {
		for _, name := range strings.Split(s, "+") {
			m := key.ModifierFromName(name)
			if m == key.ModNone {
				L.ArgError(4, fmt.Sprintf("unknown modifier %q", name))
				return 0
			}
			mods = mods.With(m)
		}
	}

	e := pointer.Event{
		Position:  pointer.Point{X: float64(L.CheckNumber(2)), Y: float64(L.CheckNumber(3))},
		Button:    pointer.ButtonPrimary,
		Action:    action,
		Modifiers: mods,
	}
	L.Push(lua.LBool(h.session.HandlePointer(e)))
	return 1
}

// composer.key(chord) -> handled
func (h *Host) luaKey(L *lua.LState) int {
	e, err := key.Parse(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(lua.LBool(h.session.HandleKey(e)))
	return 1
}

// composer.load_yaml(text) replaces the document and clears history.
func (h *Host) luaLoadYAML(L *lua.LState) int {
	doc, err := document.DecodeYAML([]byte(L.CheckString(1)))
	if err != nil {
		L.RaiseError("load_yaml: %v", err)
		return 0
	}
	h.session.Load(doc)
	return 0
}

// composer.load_file(path) is load_yaml on the file's contents.
func (h *Host) luaLoadFile(L *lua.LState) int {
	path := L.CheckString(1)
	data, err := os.ReadFile(path)
	if err != nil {
		L.RaiseError("load_file: %v", err)
		return 0
	}
	doc, err := document.DecodeYAML(data)
	if err != nil {
		L.RaiseError("load_file %s: %v", path, err)
		return 0
	}
	h.session.Load(doc)
	return 0
}

// composer.dump_yaml() -> text
func (h *Host) luaDumpYAML(L *lua.LState) int {
	data, err := document.EncodeYAML(h.session.Document())
	if err != nil {
		L.RaiseError("dump_yaml: %v", err)
		return 0
	}
	L.Push(lua.LString(data))
	return 1
}

// composer.set_sticker_category(name) sets the sticker panel category.
func (h *Host) luaSetCategory(L *lua.LState) int {
	h.session.SetStickerCategory(L.CheckString(1))
	return 0
}

// layerTable flattens a layer into a Lua table: payload fields plus id,
// kind, zIndex, visible, locked, start and duration.
func layerTable(L *lua.LState, l layer.Layer) *lua.LTable {
	t, _ := toLua(L, l.Payload.ToMap()).(*lua.LTable)
	if t == nil {
		t = L.NewTable()
	}
	t.RawSetString(layer.KeyID, lua.LString(l.ID))
	t.RawSetString("kind", lua.LString(l.Kind.String()))
	z := l.ZIndex
	if math.IsInf(z, -1) {
		z = -math.MaxFloat64
	}
	t.RawSetString(layer.KeyZIndex, number(z))
	t.RawSetString(layer.KeyVisible, lua.LBool(l.Visible))
	t.RawSetString(layer.KeyLocked, lua.LBool(l.Locked))
	t.RawSetString(layer.KeyStart, number(l.Placement.Start))
	t.RawSetString(layer.KeyDuration, number(l.Placement.Duration))
	return t
}
