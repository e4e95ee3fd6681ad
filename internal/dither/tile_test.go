package dither

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilePeriodicity(t *testing.T) {
	for depth := 0; depth <= 3; depth++ {
		m, err := BuildBayer(depth)
		require.NoError(t, err)
		side := m.Size()

		tiled, err := Tile(m.Normalize(), 3*side+1, 2*side+3)
		require.NoError(t, err)
		require.Len(t, tiled, 3*side+1)

		for r := range tiled {
			require.Len(t, tiled[r], 2*side+3)
			for c := range tiled[r] {
				if r+side < len(tiled) {
					assert.Equal(t, tiled[r][c], tiled[r+side][c], "row period at (%d,%d)", r, c)
				}
				if c+side < len(tiled[r]) {
					assert.Equal(t, tiled[r][c], tiled[r][c+side], "column period at (%d,%d)", r, c)
				}
			}
		}
	}
}

func TestTileNonSquareOutput(t *testing.T) {
	m, _ := BuildBayer(1)
	tiled, err := Tile(m.Normalize(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, Thresholds{{0, 0.5, 0, 0.5, 0}}, tiled)
}

func TestTileEmptyOutput(t *testing.T) {
	m, _ := BuildBayer(2)
	for _, dims := range [][2]int{{0, 4}, {4, 0}, {0, 0}} {
		tiled, err := Tile(m.Normalize(), dims[0], dims[1])
		require.NoError(t, err)
		assert.Empty(t, tiled)
	}
}

func TestTileInvalid(t *testing.T) {
	tests := []struct {
		name   string
		matrix Thresholds
		height int
		width  int
	}{
		{"empty matrix", Thresholds{}, 2, 2},
		{"non-square matrix", Thresholds{{0, 0.5}}, 2, 2},
		{"negative height", Thresholds{{0}}, -1, 2},
		{"negative width", Thresholds{{0}}, 2, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tile(tt.matrix, tt.height, tt.width)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestCenterDoesNotMutate(t *testing.T) {
	in := Thresholds{{0, 0.5}, {0.75, 0.25}}
	out := Center(in)
	assert.Equal(t, Thresholds{{-0.5, 0}, {0.25, -0.25}}, out)
	assert.Equal(t, Thresholds{{0, 0.5}, {0.75, 0.25}}, in)
}

func TestNewDitherMap(t *testing.T) {
	dm, err := NewDitherMap(1, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, Thresholds{
		{-0.5, 0, -0.5},
		{0.25, -0.25, 0.25},
		{-0.5, 0, -0.5},
	}, dm)

	for _, row := range dm {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, -0.5)
			assert.Less(t, v, 0.5)
		}
	}

	_, err = NewDitherMap(1, 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = NewDitherMap(-2, 3, 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
