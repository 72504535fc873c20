// Package pkgconfig provides a small abstraction for reading configuration values.
//
// Values come from a YAML file and can be overridden by EXPORTER_* environment
// variables (dots in keys become underscores). Components never read the
// Config directly during an export: the application reads it once at startup
// and builds immutable settings values from it.
package pkgconfig
