// Package pkgmem reclaims heap memory between export chunks and reports the
// process resident set size so large sheets can be watched in the logs.
package pkgmem
