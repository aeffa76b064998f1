// Package script drives an editor session from Lua.
//
// A Host runs scripts in a gopher-lua state with only the base, table,
// string and math libraries opened. Scripts reach the session through the
// global "composer" table:
//
//	local id = composer.add("sticker", {x = 30, width = 120})
//	composer.update(id, {rotation = 45})
//	composer.wait(400)          -- let the edit settle into one undo step
//	composer.undo()
//	for _, l in ipairs(composer.layers()) do print(l.id, l.x) end
//
// Lua numbers arrive in payloads as float64. Tables with keys 1..n become
// slices; other tables become maps.
//
// Errors raised by scripts, including errors raised by composer functions
// for bad arguments, are returned as *Error and never panic the caller.
package script
