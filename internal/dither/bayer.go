package dither

// MaxDepth is the largest depth accepted by the service and CLI surfaces.
// The builder itself takes any non-negative depth, but the matrix grows as
// 4^depth so anything past this is not useful for an image.
const MaxDepth = 8

// Matrix is a square Bayer threshold matrix holding a permutation of
// 0..side²-1.
type Matrix [][]int

// Thresholds is a grid of real-valued thresholds, indexed [row][col].
type Thresholds [][]float64

// bayerOffsets are added to 4*m for the top-left, top-right, bottom-left and
// bottom-right quadrants respectively.
var bayerOffsets = [2][2]int{
	{0, 2},
	{3, 1},
}

// BuildBayer constructs the Bayer matrix of side 2^depth by iterative
// doubling starting from [[0]].
func BuildBayer(depth int) (Matrix, error) {
	if depth < 0 {
		return nil, invalid(ComponentBayer, "depth must be non-negative, got %d", depth)
	}

	m := Matrix{{0}}
	for level := 0; level < depth; level++ {
		m = m.double()
	}
	return m, nil
}

// double returns the next recursion level: four quadrants of 4*m + offset.
func (m Matrix) double() Matrix {
	s := len(m)
	next := make(Matrix, 2*s)
	for r := range next {
		next[r] = make([]int, 2*s)
	}

	for qr := 0; qr < 2; qr++ {
		for qc := 0; qc < 2; qc++ {
			offset := bayerOffsets[qr][qc]
			for r := 0; r < s; r++ {
				for c := 0; c < s; c++ {
					next[qr*s+r][qc*s+c] = 4*m[r][c] + offset
				}
			}
		}
	}
	return next
}

// Size returns the side length of the matrix.
func (m Matrix) Size() int {
	return len(m)
}

// Max returns the number of cells, which is also one more than the largest value.
func (m Matrix) Max() int {
	return len(m) * len(m)
}

// Normalize divides every entry by the number of cells, giving values in [0,1).
func (m Matrix) Normalize() Thresholds {
	total := float64(m.Max())
	out := make(Thresholds, len(m))
	for r, row := range m {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			out[r][c] = float64(v) / total
		}
	}
	return out
}

// Flatten returns the matrix values in row-major order.
func (m Matrix) Flatten() []int {
	flat := make([]int, 0, m.Max())
	for _, row := range m {
		flat = append(flat, row...)
	}
	return flat
}
