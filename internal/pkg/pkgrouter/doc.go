// Package pkgrouter wraps HTTP routing and common middleware used by the API.
//
// It provides a small router abstraction over httprouter plus shared concerns
// like JSON envelopes, error mapping, request logging, panic recovery, upload
// size limits and correlation ID propagation.
package pkgrouter
