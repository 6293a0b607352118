package crc

// CRC16 computes a bit-serial CRC-16 over data, MSB first, without input or
// output reflection and without a final XOR. Polynomial and initial register
// value are caller supplied so different protocol parameterizations share the
// same loop.
func CRC16(data []byte, polynomial, initial uint16) uint16 {
	remainder := initial
	for _, b := range data {
		remainder ^= uint16(b) << 8
		for bit := 0; bit < 8; bit++ {
			if remainder&0x8000 != 0 {
				remainder = remainder<<1 ^ polynomial
			} else {
				remainder <<= 1
			}
		}
	}
	return remainder
}
