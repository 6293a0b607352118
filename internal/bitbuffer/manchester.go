package bitbuffer

// ManchesterDecode reads raw bit pairs from src starting at startBit and
// appends up to maxBits logical bits to a fresh single-row buffer. The
// logical bit is the second half of each pair; a pair with equal halves is a
// coding violation and terminates decoding early, so callers must check the
// output length. Returns the output buffer and the input position after the
// last consumed pair.
func ManchesterDecode(src *Buffer, row, startBit, maxBits int) (*Buffer, int) {
	out := New()
	end := src.BitsPerRow(row)
	if maxBits > 0 && startBit+2*maxBits < end {
		end = startBit + 2*maxBits
	}
	pos := startBit
	for pos+2 <= end {
		first := src.BitAt(row, pos)
		second := src.BitAt(row, pos+1)
		pos += 2
		if first == second {
			break
		}
		out.AddBit(second)
	}
	return out, pos
}
