// Package pkgroutine contains helpers for running goroutines safely.
//
// The Manager type bounds concurrency, collects returned errors, and logs
// panics so that background exports do not crash the process silently.
package pkgroutine
