// Package address parses URL strings into typed, scheme-tagged addresses
// and resolves references against them. It performs no I/O.
package address
