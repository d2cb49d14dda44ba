package random

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// SampleFrom draws k distinct elements of items uniformly at random without
// replacement, reading entropy from src (crypto/rand.Reader in production).
// It runs a partial Fisher-Yates pass over a copy of items. k is clamped to
// [0, len(items)]; items is never modified.
func SampleFrom[T any](src io.Reader, items []T, k int) ([]T, error) {
	n := len(items)
	if k > n {
		k = n
	}
	if k <= 0 {
		return []T{}, nil
	}

	pool := make([]T, n)
	copy(pool, items)
	for i := 0; i < k; i++ {
		// pick j uniformly from [i, n)
		jBig, err := rand.Int(src, big.NewInt(int64(n-i)))
		if err != nil {
			return nil, fmt.Errorf("failed to generate random number: %w", err)
		}
		j := i + int(jBig.Int64())
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k], nil
}
