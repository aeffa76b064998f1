// Package config loads composer settings from TOML or YAML files.
//
// Settings are layered over built-in defaults: a file only needs to name
// the values it changes. Load validates the result and reports every
// invalid field at once.
//
// Files are selected by extension:
//
//	.toml        TOML, decoded with go-toml/v2
//	.yaml, .yml  YAML, decoded with yaml.v3
//
// Unknown keys are parse errors in both formats.
//
// A Watcher reloads a file when it changes on disk and passes the new
// Config to observers registered with OnChange. A reload that fails to
// parse or validate is logged and the previous Config stays current.
package config
