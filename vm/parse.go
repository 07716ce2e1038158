package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseProgram parses Intcode program text: base-10 signed integers
// separated by commas, with optional ASCII whitespace around each token.
func ParseProgram(input string) ([]Value, error) {
	tokens := strings.Split(strings.TrimSpace(input), ",")
	program := make([]Value, 0, len(tokens))
	for i, token := range tokens {
		v, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("program token %d: %w", i, err)
		}
		program = append(program, v)
	}
	return program, nil
}
