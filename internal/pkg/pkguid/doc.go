// Package pkguid provides helpers for generating unique identifiers.
//
// Export runs are identified by UUIDv7 strings (time ordered, safe to expose
// over HTTP); audit events get Snowflake IDs so they sort by emission time.
package pkguid
