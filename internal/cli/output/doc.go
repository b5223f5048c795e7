// Package output renders command results for the terminal.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables built from structs, slices and maps
//   - json.go, yaml.go: machine-readable output
//   - spinner.go: feedback while a slow key derivation runs
package output
