// Package bitbuffer stores the demodulated bit rows of one reception event
// and provides the bit-level primitives decoders build on: indexed access,
// whole-buffer inversion, pattern search and Manchester decoding.
package bitbuffer

// Buffer holds rows of packed bits, MSB first within each byte. A row keeps
// its own bit count so partial trailing bytes stay addressable.
type Buffer struct {
	rows [][]byte
	bits []int
}

// New returns a buffer with a single empty row.
func New() *Buffer {
	return &Buffer{rows: [][]byte{nil}, bits: []int{0}}
}

// NewFromBytes returns a single-row buffer containing all bits of data.
func NewFromBytes(data []byte) *Buffer {
	row := append([]byte{}, data...)
	return &Buffer{rows: [][]byte{row}, bits: []int{len(data) * 8}}
}

// NumRows returns the number of rows in the buffer.
func (b *Buffer) NumRows() int { return len(b.rows) }

// BitsPerRow returns the number of valid bits stored in row.
func (b *Buffer) BitsPerRow(row int) int {
	if row < 0 || row >= len(b.bits) {
		return 0
	}
	return b.bits[row]
}

// Row exposes the packed bytes of a row. Bits past BitsPerRow are padding.
func (b *Buffer) Row(row int) []byte { return b.rows[row] }

// ByteAt returns the idx-th packed byte of row.
func (b *Buffer) ByteAt(row, idx int) byte { return b.rows[row][idx] }

// BitAt returns the bit at pos within row, 0 or 1.
func (b *Buffer) BitAt(row, pos int) byte {
	return b.rows[row][pos>>3] >> (7 - pos&7) & 1
}

// AddRow starts a new empty row.
func (b *Buffer) AddRow() {
	b.rows = append(b.rows, nil)
	b.bits = append(b.bits, 0)
}

// AddBit appends one bit to the last row.
func (b *Buffer) AddBit(bit byte) {
	row := len(b.rows) - 1
	if b.bits[row]&7 == 0 {
		b.rows[row] = append(b.rows[row], 0)
	}
	if bit != 0 {
		b.rows[row][b.bits[row]>>3] |= 0x80 >> (b.bits[row] & 7)
	}
	b.bits[row]++
}

// Invert flips every valid bit in every row. Padding bits in a partial
// trailing byte are left clear.
func (b *Buffer) Invert() {
	for row := range b.rows {
		for i := range b.rows[row] {
			b.rows[row][i] = ^b.rows[row][i]
		}
		if trail := b.bits[row] & 7; trail != 0 {
			b.rows[row][len(b.rows[row])-1] &= 0xFF << (8 - trail)
		}
	}
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		rows: make([][]byte, len(b.rows)),
		bits: append([]int{}, b.bits...),
	}
	for i, row := range b.rows {
		c.rows[i] = append([]byte{}, row...)
	}
	return c
}

// Search scans row for the first patternBits bits of pattern, starting at
// fromBit. It returns the bit position of the match and whether one was
// found.
func (b *Buffer) Search(row, fromBit int, pattern []byte, patternBits int) (int, bool) {
	if fromBit < 0 {
		fromBit = 0
	}
	for pos := fromBit; pos+patternBits <= b.bits[row]; pos++ {
		if b.matchAt(row, pos, pattern, patternBits) {
			return pos, true
		}
	}
	return 0, false
}

func (b *Buffer) matchAt(row, pos int, pattern []byte, patternBits int) bool {
	for i := 0; i < patternBits; i++ {
		if b.BitAt(row, pos+i) != pattern[i>>3]>>(7-i&7)&1 {
			return false
		}
	}
	return true
}
