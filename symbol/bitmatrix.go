package symbol

import "math/bits"

const wordBits = 64

// BitMatrix is a dense, row-major bit matrix used for the prediction
// matrix and the interleaved LR first/follow sets. Rows need not equal
// columns; the prediction matrix is square (symbols × symbols) while the
// LR-sets matrix is 2·syms rows by syms columns (row 2k = FIRST(k), row
// 2k+1 = FOLLOW(k)).
type BitMatrix struct {
	rows, cols int
	rowWords   int
	bits       []uint64
}

// NewBitMatrix allocates a rows×cols matrix, all bits initially clear.
func NewBitMatrix(rows, cols int) *BitMatrix {
	rowWords := (cols + wordBits - 1) / wordBits
	if rowWords == 0 {
		rowWords = 1
	}
	return &BitMatrix{
		rows:     rows,
		cols:     cols,
		rowWords: rowWords,
		bits:     make([]uint64, rows*rowWords),
	}
}

// Rows returns the matrix's row count.
func (m *BitMatrix) Rows() int { return m.rows }

// Cols returns the matrix's column count.
func (m *BitMatrix) Cols() int { return m.cols }

func (m *BitMatrix) index(row, col int) (word int, mask uint64) {
	base := row * m.rowWords
	word = base + col/wordBits
	mask = uint64(1) << uint(col%wordBits)
	return
}

// Get reports whether bit (row, col) is set.
func (m *BitMatrix) Get(row, col int) bool {
	w, mask := m.index(row, col)
	return m.bits[w]&mask != 0
}

// Set sets bit (row, col).
func (m *BitMatrix) Set(row, col int) {
	w, mask := m.index(row, col)
	m.bits[w] |= mask
}

// Clear clears bit (row, col).
func (m *BitMatrix) Clear(row, col int) {
	w, mask := m.index(row, col)
	m.bits[w] &^= mask
}

// Row returns the backing words of one row, for callers that want to OR
// whole rows together (e.g. the recognizer unioning prediction rows).
func (m *BitMatrix) Row(row int) []uint64 {
	base := row * m.rowWords
	return m.bits[base : base+m.rowWords]
}

// OrRowInto ORs src's row into dst's row in place, returning whether any
// new bit was set.
func (m *BitMatrix) OrRowInto(dstRow int, src []uint64) bool {
	dst := m.Row(dstRow)
	changed := false
	for i, w := range src {
		if i >= len(dst) {
			break
		}
		merged := dst[i] | w
		if merged != dst[i] {
			changed = true
			dst[i] = merged
		}
	}
	return changed
}

// Each calls f for every set column index in the given row.
func (m *BitMatrix) Each(row int, f func(col int)) {
	base := row * m.rowWords
	for wi := 0; wi < m.rowWords; wi++ {
		w := m.bits[base+wi]
		for w != 0 {
			b := bits.TrailingZeros64(w)
			col := wi*wordBits + b
			if col >= m.cols {
				return
			}
			f(col)
			w &^= uint64(1) << uint(b)
		}
	}
}

// Count returns the number of set bits in the given row.
func (m *BitMatrix) Count(row int) int {
	base := row * m.rowWords
	n := 0
	for wi := 0; wi < m.rowWords; wi++ {
		n += bits.OnesCount64(m.bits[base+wi])
	}
	return n
}

// ReflexiveClosure sets the diagonal, assuming the matrix is square
// (rows == cols), as required by the prediction matrix's invariant
// ∀a. P[a,a].
func (m *BitMatrix) ReflexiveClosure() {
	n := m.rows
	if m.cols < n {
		n = m.cols
	}
	for i := 0; i < n; i++ {
		m.Set(i, i)
	}
}

// TransitiveClosure computes the transitive closure of a square matrix
// via Warshall's algorithm: ∀a,b,c. P[a,b] ∧ P[b,c] ⇒ P[a,c].
func (m *BitMatrix) TransitiveClosure() {
	n := m.rows
	for k := 0; k < n; k++ {
		if !m.Get(k, k) && m.Count(k) == 0 {
			continue
		}
		kRow := m.Row(k)
		for i := 0; i < n; i++ {
			if m.Get(i, k) {
				m.OrRowInto(i, kRow)
			}
		}
	}
}
