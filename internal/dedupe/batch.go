package dedupe

import (
	"fmt"
	"strings"
)

// Policy decides which record survives when several share an id in one batch.
type Policy string

const (
	// KeepFirst keeps the first record seen for an id.
	KeepFirst Policy = "first"
	// KeepLast keeps the last record seen, at the position of the first.
	KeepLast Policy = "last"
)

// ParsePolicy maps a config string to a Policy; empty selects KeepFirst.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KeepFirst:
		return KeepFirst, nil
	case KeepLast:
		return KeepLast, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", raw)
	}
}

// Result is a deduplicated, capped batch.
type Result[T any] struct {
	Items      []T
	Duplicates int
	Truncated  int
}

// Apply collapses records sharing key(item) and then caps the batch at max.
// max <= 0 disables the cap. Records beyond the cap are dropped.
func Apply[T any](items []T, key func(T) string, policy Policy, max int) Result[T] {
	out := make([]T, 0, len(items))
	index := make(map[string]int, len(items))
	res := Result[T]{}

	for _, item := range items {
		id := key(item)
		if pos, ok := index[id]; ok {
			res.Duplicates++
			if policy == KeepLast {
				out[pos] = item
			}
			continue
		}
		index[id] = len(out)
		out = append(out, item)
	}

	if max > 0 && len(out) > max {
		res.Truncated = len(out) - max
		out = out[:max]
	}
	res.Items = out
	return res
}
