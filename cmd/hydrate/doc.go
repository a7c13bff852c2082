// Command hydrate prints hydrated fixtures for the types of the example
// model catalogue.
//
// Usage
//
//	hydrate list
//	hydrate Customer --count 3 --recursion 1 --seed 42 --format json
//	hydrate --config fixtures.yaml
//
// Flags override values read from --config. The config file is YAML:
//
//	model: Transaction
//	count: 2
//	recursion: 1
//	seed: 7
//	format: dump
//	logLevel: debug
//
// Formats: yaml (default), json, and dump (go-spew). Logs go to stderr.
package main
