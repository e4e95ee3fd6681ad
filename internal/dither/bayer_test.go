package dither

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBayerKnownMatrices(t *testing.T) {
	tests := []struct {
		name     string
		depth    int
		expected Matrix
	}{
		{
			name:     "depth 0",
			depth:    0,
			expected: Matrix{{0}},
		},
		{
			name:     "depth 1",
			depth:    1,
			expected: Matrix{{0, 2}, {3, 1}},
		},
		{
			name:  "depth 2",
			depth: 2,
			expected: Matrix{
				{0, 8, 2, 10},
				{12, 4, 14, 6},
				{3, 11, 1, 9},
				{15, 7, 13, 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildBayer(tt.depth)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, m); diff != "" {
				t.Errorf("BuildBayer(%d) mismatch (-want +got):\n%s", tt.depth, diff)
			}
		})
	}
}

func TestBuildBayerDepth3MatchesClassic8x8(t *testing.T) {
	// the usual published 8x8 table
	want := Matrix{
		{0, 32, 8, 40, 2, 34, 10, 42},
		{48, 16, 56, 24, 50, 18, 58, 26},
		{12, 44, 4, 36, 14, 46, 6, 38},
		{60, 28, 52, 20, 62, 30, 54, 22},
		{3, 35, 11, 43, 1, 33, 9, 41},
		{51, 19, 59, 27, 49, 17, 57, 25},
		{15, 47, 7, 39, 13, 45, 5, 37},
		{63, 31, 55, 23, 61, 29, 53, 21},
	}
	m, err := BuildBayer(3)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, m))
}

func TestBuildBayerPermutation(t *testing.T) {
	for depth := 0; depth <= 6; depth++ {
		m, err := BuildBayer(depth)
		require.NoError(t, err)

		side := 1 << depth
		require.Equal(t, side, m.Size())
		for _, row := range m {
			require.Len(t, row, side)
		}

		flat := m.Flatten()
		sort.Ints(flat)
		for i, v := range flat {
			if v != i {
				t.Fatalf("depth %d: sorted values diverge at %d: got %d", depth, i, v)
			}
		}
	}
}

// quadrant copies one of the four half-side quadrants; qr and qc are 0 or 1
func quadrant(m Matrix, qr, qc int) Matrix {
	half := len(m) / 2
	out := make(Matrix, half)
	for r := 0; r < half; r++ {
		out[r] = make([]int, half)
		copy(out[r], m[qr*half+r][qc*half:qc*half+half])
	}
	return out
}

func TestBuildBayerRecursiveStructure(t *testing.T) {
	offsets := [2][2]int{{0, 2}, {3, 1}}
	for depth := 1; depth <= 5; depth++ {
		prev, err := BuildBayer(depth - 1)
		require.NoError(t, err)
		m, err := BuildBayer(depth)
		require.NoError(t, err)

		for qr := 0; qr < 2; qr++ {
			for qc := 0; qc < 2; qc++ {
				want := make(Matrix, len(prev))
				for r, row := range prev {
					want[r] = make([]int, len(row))
					for c, v := range row {
						want[r][c] = 4*v + offsets[qr][qc]
					}
				}
				if diff := cmp.Diff(want, quadrant(m, qr, qc)); diff != "" {
					t.Errorf("depth %d quadrant (%d,%d) mismatch (-want +got):\n%s", depth, qr, qc, diff)
				}
			}
		}
	}
}

func TestBuildBayerNegativeDepth(t *testing.T) {
	_, err := BuildBayer(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, ComponentBayer, argErr.Component)
	assert.Contains(t, err.Error(), "depth")
}

func TestNormalize(t *testing.T) {
	m0, _ := BuildBayer(0)
	assert.Equal(t, Thresholds{{0}}, m0.Normalize())

	m1, _ := BuildBayer(1)
	assert.Equal(t, Thresholds{{0, 0.5}, {0.75, 0.25}}, m1.Normalize())

	m4, _ := BuildBayer(4)
	maxAllowed := 1 - 1/float64(m4.Max())
	for _, row := range m4.Normalize() {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, maxAllowed)
		}
	}
}
