// Package utils provides small helpers shared by the HTTP layer that carry
// no domain logic.
package utils

import (
	"strconv"
	"strings"
)

// QueryLimit parses a ?limit= value. Blank, malformed, zero and negative
// values all yield 0, which the services read as "use the default". Values
// above the service maximum are clamped there, not here.
//
//	utils.QueryLimit("20")  // 20
//	utils.QueryLimit("")    // 0
//	utils.QueryLimit("-5")  // 0
//	utils.QueryLimit("ten") // 0
func QueryLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ClampLimit resolves a parsed limit against a default and a ceiling. The
// handlers and the services both call it, so a response's ETag and its
// query agree on the page size.
//
//	utils.ClampLimit(0, 50, 50)   // 50
//	utils.ClampLimit(10, 50, 50)  // 10
//	utils.ClampLimit(500, 50, 50) // 50
func ClampLimit(n, def, ceil int) int {
	if n <= 0 {
		return def
	}
	if n > ceil {
		return ceil
	}
	return n
}
