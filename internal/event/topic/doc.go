// Package topic provides dotted event topics and wildcard patterns.
//
// Topics are dot-separated:
//
//	document.changed
//	layer.selected
//	panel.sticker.category
//
// Patterns may use "*" for exactly one segment and "**" for zero or more:
//
//	layer.*      matches layer.added, layer.deleted (not layer.a.b)
//	gesture.**   matches gesture.started, gesture.ended
//	**           matches everything
package topic
