// Package scramble reverses the byte-level XOR obfuscation Careud sensors
// apply to the five payload bytes before transmission.
package scramble

// PayloadLength is the number of obfuscated bytes in a frame.
const PayloadLength = 5

// Descramble undoes the transmitter's XOR cascade in place. The pass order
// matters: the second pass reads d[4] as rewritten by the first, and rewrites
// d[0], which the first pass left alone. The cascade is a reverse-engineered
// protocol artifact, not a standard cipher, and is not equivalent to any
// single-pass formula.
func Descramble(d []byte) {
	for i := 1; i < PayloadLength; i++ {
		d[i] ^= d[0]
	}
	for i := 3; i >= 0; i-- {
		d[i] ^= d[4]
	}
}

// Scramble applies the transmitter-side cascade in place, the exact inverse
// of Descramble. Used when building frames, e.g. for test fixtures.
func Scramble(d []byte) {
	for i := 3; i >= 0; i-- {
		d[i] ^= d[4]
	}
	for i := 1; i < PayloadLength; i++ {
		d[i] ^= d[0]
	}
}
