package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	cases := []struct {
		page, size            int
		offset, limit, normed int
	}{
		{1, 10, 0, 10, 1},
		{3, 5, 10, 5, 3},
		{0, 0, 0, DefaultPageSize, 1},
		{-2, 101, 0, DefaultPageSize, 1},
		{2, MaxPageSize, MaxPageSize, MaxPageSize, 2},
	}
	for _, tc := range cases {
		offset, limit, page := Page(tc.page, tc.size)
		assert.Equal(t, tc.offset, offset)
		assert.Equal(t, tc.limit, limit)
		assert.Equal(t, tc.normed, page)
	}
}
