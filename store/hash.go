package store

import (
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	"github.com/chazu/intcode/vm"
)

// ProgramID returns a short content-derived identifier for a program: the
// base58 rendering of the BLAKE3 digest of its canonical comma-separated
// text. Equal programs always get equal IDs regardless of the whitespace in
// the source they were parsed from.
func ProgramID(program []vm.Value) string {
	sum := blake3.Sum256([]byte(renderValues(program)))
	return base58.Encode(sum[:])
}

// renderValues is the canonical text form: base-10 values joined by commas,
// no whitespace.
func renderValues(values []vm.Value) string {
	tokens := make([]string, len(values))
	for i, v := range values {
		tokens[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(tokens, ",")
}

// parseValues is the inverse of renderValues. The empty string round-trips
// to an empty sequence, which ParseProgram would reject.
func parseValues(text string) ([]vm.Value, error) {
	if text == "" {
		return nil, nil
	}
	return vm.ParseProgram(text)
}
