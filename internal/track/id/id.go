// Package id provides short unique identifiers for tracks and exports.
package id

import "github.com/google/uuid"

// Length is the number of characters in a generated identifier.
const Length = 8

// New returns a short lowercase hex identifier derived from a random UUID.
// Example: "a1b2c3d4"
func New() string {
	return uuid.NewString()[:Length]
}
