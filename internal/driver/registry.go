package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/vschepin/gotpms/internal/bitbuffer"
)

// Modulation describes how the demodulation layer must produce bit rows for
// a decoder: it is declared configuration, never processed by the decoder
// itself.
type Modulation struct {
	Mode         string
	CenterFreqHz uint32
	// Pulse timing in microseconds.
	ShortWidth float64
	LongWidth  float64
	// Gap that terminates a reception event.
	ResetLimit float64
}

// Sink receives one named-field record per successfully decoded reading.
// Decoders do not consult any outcome of the delivery.
type Sink func(fields map[string]any)

// Decoder turns one reception event's bit buffer into emitted readings.
type Decoder interface {
	Name() string
	Modulation() Modulation
	// Decode owns buf for the duration of the call; the only mutation it may
	// perform is a single whole-buffer inversion up front. It returns the
	// number of readings emitted and, when that is zero, the last rejection
	// reason for diagnostics.
	Decode(ctx context.Context, buf *bitbuffer.Buffer, sink Sink) (int, error)
}

var (
	regMu    sync.RWMutex
	registry []Decoder
)

// Register stores a decoder in the in-memory registry.
func Register(d Decoder) {
	regMu.Lock()
	defer regMu.Unlock()
	registry = append(registry, d)
}

// Decoders returns a snapshot of all registered decoders.
func Decoders() []Decoder {
	regMu.RLock()
	defer regMu.RUnlock()
	return append([]Decoder{}, registry...)
}

// Lookup returns the decoder with the given name.
func Lookup(name string) (Decoder, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	for _, d := range registry {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("decoder not found: %s", name)
}
