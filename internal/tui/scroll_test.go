package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtBottom(t *testing.T) {
	tests := []struct {
		name         string
		offset       int
		content      int
		height       int
		threshold    int
		wantAtBottom bool
	}{
		{"content fits entirely", 0, 5, 10, 0, true},
		{"exactly at bottom", 10, 20, 10, 0, true},
		{"one line above, zero threshold", 9, 20, 10, 0, false},
		{"one line above, within threshold", 9, 20, 10, 2, true},
		{"just outside threshold", 7, 20, 10, 2, false},
		{"at boundary of threshold", 8, 20, 10, 2, true},
		{"scrolled to top", 0, 100, 10, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AtBottom(tt.offset, tt.content, tt.height, tt.threshold)
			assert.Equal(t, tt.wantAtBottom, got)
		})
	}
}

func TestClampOffset(t *testing.T) {
	assert.Equal(t, 0, clampOffset(-3, 20, 10))
	assert.Equal(t, 10, clampOffset(15, 20, 10))
	assert.Equal(t, 5, clampOffset(5, 20, 10))
	assert.Equal(t, 0, clampOffset(4, 5, 10))
}

func TestBottomOffset(t *testing.T) {
	assert.Equal(t, 0, bottomOffset(5, 10))
	assert.Equal(t, 90, bottomOffset(100, 10))
}
