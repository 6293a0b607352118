// Package gotpms decodes tire-pressure sensor telemetry from demodulated
// bit buffers.
package gotpms

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/vschepin/gotpms/internal/bitbuffer"
	"github.com/vschepin/gotpms/internal/driver"
	_ "github.com/vschepin/gotpms/internal/driver/careud" // register decoder
)

// Reading is one emitted sensor report plus the decoder that produced it.
type Reading struct {
	Decoder string
	Fields  map[string]any
}

// Result captures the outcome of one analyzed reception event.
type Result struct {
	RawHex   string
	BitCount int
	Events   int
	Readings []Reading
	// LastReject carries the final rejection reason when nothing decoded.
	// Diagnostics only; an event without valid packets is not an error.
	LastReject string
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"raw_hex":   r.RawHex,
		"bit_count": r.BitCount,
		"events":    r.Events,
	}
	if len(r.Readings) > 0 {
		records := make([]map[string]any, 0, len(r.Readings))
		for _, reading := range r.Readings {
			record := map[string]any{"decoder": reading.Decoder}
			for k, v := range reading.Fields {
				record[k] = v
			}
			records = append(records, record)
		}
		summary["readings"] = records
	}
	if r.LastReject != "" {
		summary["last_reject"] = r.LastReject
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("bits:%d events:%d raw:%s (marshal error: %v)", r.BitCount, r.Events, r.RawHex, err)
	}
	return string(data)
}

// AnalyzeHex decodes one reception event given as a hex bit row in raw
// transmitted polarity.
func AnalyzeHex(ctx context.Context, raw string) (Result, error) {
	return AnalyzeHexWithOptions(ctx, raw, AnalyzeOptions{})
}

// AnalyzeHexWithOptions decodes one reception event with custom options.
// Every registered decoder runs over its own clone of the buffer, since each
// decoder owns its buffer for the duration of the call and may invert it.
func AnalyzeHexWithOptions(ctx context.Context, raw string, opts AnalyzeOptions) (Result, error) {
	ctx = opts.toInternal(ctx)
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	buf := bitbuffer.NewFromBytes(data)
	result := Result{
		RawHex:   strings.ToUpper(stripWhitespace(raw)),
		BitCount: buf.BitsPerRow(0),
	}
	var lastErr error
	for _, dec := range driver.Decoders() {
		name := dec.Name()
		sink := func(fields map[string]any) {
			result.Readings = append(result.Readings, Reading{Decoder: name, Fields: fields})
		}
		events, err := dec.Decode(ctx, buf.Clone(), sink)
		result.Events += events
		if events == 0 && err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
		}
	}
	if result.Events == 0 && lastErr != nil {
		result.LastReject = lastErr.Error()
	}
	return result, nil
}

func decodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex bit row must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
