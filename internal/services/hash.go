package services

import (
	"crypto/md5"
	"encoding/hex"
)

// BatchSize is the number of candidates sent to the scoring engine at once.
const BatchSize = 10

// HashJobDescription returns the job identity for a job description. The
// same text always produces the same hash.
func HashJobDescription(jobDescription string) string {
	sum := md5.Sum([]byte(jobDescription))
	return hex.EncodeToString(sum[:])
}

// SplitInBatches splits items into consecutive batches of size; only the last
// batch may be shorter.
func SplitInBatches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = BatchSize
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}
