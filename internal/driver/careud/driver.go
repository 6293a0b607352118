// Package careud decodes Careud TPMS telemetry: Manchester-coded frames at
// 433.92 MHz carrying tire pressure, temperature and alarm flags behind a
// byte-level XOR obfuscation.
package careud

import (
	"context"

	"github.com/vschepin/gotpms/internal/bitbuffer"
	"github.com/vschepin/gotpms/internal/driver"
)

const (
	// windowBits is one frame after Manchester decoding: 9 bytes.
	windowBits = 72
	// minTrailBits is the minimum number of bits that must remain after a
	// preamble candidate for an attempt to be worthwhile.
	minTrailBits = 80
	// syncSkipBits positions the Manchester decode on the matched 0xA9 byte,
	// which doubles as the first symbol byte of the sync word.
	syncSkipBits = 16
	// stepBits is how far the scan cursor advances after every attempt.
	// Rescanning two bits later tolerates the phase ambiguity of Manchester
	// streams, where a false match can sit right before a true one.
	stepBits = 2
)

// preamblePattern as seen after inverting the buffer; on air it is aa aa 56.
var preamblePattern = []byte{0x55, 0x55, 0xA9}

func init() { driver.Register(Driver{}) }

// Driver implements the Careud TPMS decoder.
type Driver struct{}

// Name returns the canonical decoder name.
func (Driver) Name() string { return "careud" }

// Modulation declares the demodulator settings that produce this decoder's
// bit rows.
func (Driver) Modulation() driver.Modulation {
	return driver.Modulation{
		Mode:         "FSK_PCM",
		CenterFreqHz: 433920000,
		ShortWidth:   52,
		LongWidth:    52,
		ResetLimit:   150,
	}
}

// Decode inverts the buffer once, then walks preamble candidates on row 0.
// Every candidate is attempted; the cursor then advances by two bits whether
// the attempt succeeded or not, so overlapping candidates are retried.
func (d Driver) Decode(ctx context.Context, buf *bitbuffer.Buffer, sink driver.Sink) (int, error) {
	buf.Invert()

	events := 0
	var lastErr error
	from := 0
	for {
		pos, ok := buf.Search(0, from, preamblePattern, len(preamblePattern)*8)
		if !ok || pos+minTrailBits > buf.BitsPerRow(0) {
			break
		}
		if err := d.decodeWindow(ctx, buf, 0, pos+syncSkipBits, sink); err != nil {
			lastErr = err
		} else {
			events++
		}
		from = pos + stepBits
	}
	if events > 0 {
		return events, nil
	}
	return 0, lastErr
}
