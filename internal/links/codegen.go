package links

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	// CodeAlphabet is the base-36 alphabet short codes are drawn from.
	CodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// DefaultCodeLength matches the six-character codes existing links carry.
	DefaultCodeLength = 6
	maxCodeAttempts   = 8
)

// CodeGenerator generates short codes.
type CodeGenerator func() string

// NewCodeGenerator returns a generator of fixed-length lowercase alphanumeric codes.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(CodeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("code generator: %w", err)
	}

	return gen, nil
}

// UniqueCode draws codes until one is not already used in c. After
// maxCodeAttempts collisions it gives up and returns the last draw, leaving
// resolution to the newest-first tie-break of FindByCode.
func UniqueCode(generate CodeGenerator, c Collection) string {
	used := Codes(c)

	var code string

	for range maxCodeAttempts {
		code = generate()
		if _, taken := used[code]; !taken {
			return code
		}
	}

	return code
}
