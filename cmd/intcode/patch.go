package main

import (
	"fmt"
	"strconv"
	"strings"
)

// patch is one addr=value memory overwrite applied before a run.
type patch struct {
	address int64
	value   int64
}

// patchFlags collects repeated -patch flags.
type patchFlags []patch

func (p *patchFlags) String() string {
	parts := make([]string, len(*p))
	for i, pt := range *p {
		parts[i] = fmt.Sprintf("%d=%d", pt.address, pt.value)
	}
	return strings.Join(parts, ",")
}

func (p *patchFlags) Set(s string) error {
	addrText, valueText, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("patch %q is not in addr=value form", s)
	}
	address, err := strconv.ParseInt(strings.TrimSpace(addrText), 10, 64)
	if err != nil {
		return fmt.Errorf("bad patch address: %w", err)
	}
	if address < 0 {
		return fmt.Errorf("patch address %d is negative", address)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(valueText), 10, 64)
	if err != nil {
		return fmt.Errorf("bad patch value: %w", err)
	}
	*p = append(*p, patch{address: address, value: value})
	return nil
}
