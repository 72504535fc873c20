// Package pkgerror defines the structured error returned at the HTTP edge.
//
// Pipeline failures carry their own kinds (see the export entity package);
// handlers translate them into an *Error whose Code maps to a status code.
package pkgerror
