package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashJobDescription(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HashJobDescription(""))
	assert.Equal(t, HashJobDescription("Backend engineer"), HashJobDescription("Backend engineer"))
	assert.NotEqual(t, HashJobDescription("Backend engineer"), HashJobDescription("Frontend engineer"))
	assert.Len(t, HashJobDescription("Backend engineer"), 32)
}

func TestSplitInBatches(t *testing.T) {
	tests := []struct {
		n     int
		sizes []int
	}{
		{0, []int{}},
		{1, []int{1}},
		{10, []int{10}},
		{11, []int{10, 1}},
		{25, []int{10, 10, 5}},
		{30, []int{10, 10, 10}},
	}

	for _, tt := range tests {
		batches := SplitInBatches(makeCandidates(tt.n), BatchSize)

		sizes := make([]int, 0, len(batches))
		var order []string
		for _, b := range batches {
			sizes = append(sizes, len(b))
			for _, c := range b {
				order = append(order, c.CandidateID)
			}
		}
		assert.Equal(t, tt.sizes, sizes, "n=%d", tt.n)

		var want []string
		for _, c := range makeCandidates(tt.n) {
			want = append(want, c.CandidateID)
		}
		assert.Equal(t, want, order, "batches keep input order")
	}
}

func TestSplitInBatches_AppendDoesNotLeak(t *testing.T) {
	items := []int{1, 2, 3, 4}
	batches := SplitInBatches(items, 2)

	_ = append(batches[0], 99)

	assert.Equal(t, []int{1, 2, 3, 4}, items)
}
