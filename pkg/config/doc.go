// Package config loads page documents: the visibility rules, field lists,
// remote endpoints and reveal sequences a page controller wires up.
//
// Documents are JSON or YAML. Durations are written as Go duration strings
// ("150ms", "2s"); bare numbers are milliseconds.
package config
