package careud

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vschepin/gotpms/internal/bitbuffer"
	"github.com/vschepin/gotpms/internal/crc"
	"github.com/vschepin/gotpms/internal/frame"
	"github.com/vschepin/gotpms/internal/options"
	"github.com/vschepin/gotpms/internal/scramble"
)

// frameBytes builds the on-air frame for a descrambled payload: sync word,
// scrambled payload, CRC-16/BUYPASS over the scrambled bytes.
func frameBytes(d5 [5]byte) []byte {
	payload := append([]byte{}, d5[:]...)
	scramble.Scramble(payload)
	c := crc.CRC16(payload, 0x8005, 0x0000)
	f := append([]byte{0x19, 0xCF}, payload...)
	return append(f, byte(c>>8), byte(c))
}

// byteBits expands bytes into one bit per element, MSB first.
func byteBits(data ...byte) []byte {
	var bits []byte
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, b>>i&1)
		}
	}
	return bits
}

// manchesterBits encodes each logical bit as the pair (inverted bit, bit).
func manchesterBits(data []byte) []byte {
	var bits []byte
	for _, b := range byteBits(data...) {
		bits = append(bits, 1-b, b)
	}
	return bits
}

// transmit packs logical-domain bits into a buffer with on-air polarity;
// Decode undoes this with its single up-front inversion.
func transmit(logical []byte) *bitbuffer.Buffer {
	buf := bitbuffer.New()
	for _, b := range logical {
		buf.AddBit(1 - b)
	}
	return buf
}

func packetBits(d5 [5]byte) []byte {
	return append(byteBits(0x55, 0x55, 0x55), manchesterBits(frameBytes(d5))...)
}

func collect(readings *[]map[string]any) func(map[string]any) {
	return func(fields map[string]any) {
		*readings = append(*readings, fields)
	}
}

func TestDecodeEndToEnd(t *testing.T) {
	var readings []map[string]any
	events, err := Driver{}.Decode(context.Background(),
		transmit(packetBits([5]byte{0x0A, 0x12, 0x6E, 0x40, 0x34})), collect(&readings))
	if err != nil || events != 1 {
		t.Fatalf("Decode: events=%d err=%v", events, err)
	}
	want := map[string]any{
		"model":         "Careud",
		"type":          "TPMS",
		"id":            "1234",
		"flags":         0x0A,
		"battery":       "OK",
		"pressure_BAR":  "1.00 BAR",
		"pressure_loss": "OK",
		"temperature_C": "55 C",
		"mic":           "CRC",
	}
	got := readings[0]
	if len(got) != len(want) {
		t.Fatalf("field count: got %d want %d (%v)", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %s: got %v want %v", k, got[k], v)
		}
	}
}

func TestDecodeShowRaw(t *testing.T) {
	ctx := options.WithShowRaw(context.Background(), true)
	var readings []map[string]any
	events, err := Driver{}.Decode(ctx,
		transmit(packetBits([5]byte{0x0A, 0x12, 0x6E, 0x40, 0x34})), collect(&readings))
	if err != nil || events != 1 {
		t.Fatalf("Decode: events=%d err=%v", events, err)
	}
	got := readings[0]
	if got["code"] != "19cf3e18644a0ad1bf" {
		t.Fatalf("code: got %v", got["code"])
	}
	if got["data"] != "0a126e4034" {
		t.Fatalf("data: got %v", got["data"])
	}
	if got["pressure_RAW"] != 0x40 || got["temperature_RAW"] != 0x6E {
		t.Fatalf("raw values: %v / %v", got["pressure_RAW"], got["temperature_RAW"])
	}
}

// A preamble match two bits before the real one must not mask it: the scan
// cursor advances by two bits after the failed attempt and retries.
func TestDecodeOverlappingPreambleCandidates(t *testing.T) {
	// Pattern occurrences at bits 0 and 26; only the second opens a frame.
	bits := byteBits(0x55, 0x55, 0xA9)
	bits = append(bits, 0, 0)
	bits = append(bits, byteBits(0x55, 0x55)...)
	bits = append(bits, manchesterBits(frameBytes([5]byte{0x0A, 0x12, 0x6E, 0x40, 0x34}))...)

	var readings []map[string]any
	events, err := Driver{}.Decode(context.Background(), transmit(bits), collect(&readings))
	if err != nil || events != 1 {
		t.Fatalf("Decode: events=%d err=%v", events, err)
	}
	if readings[0]["id"] != "1234" {
		t.Fatalf("id: got %v", readings[0]["id"])
	}
}

func TestDecodeMultiplePackets(t *testing.T) {
	pkt := packetBits([5]byte{0x0A, 0x12, 0x6E, 0x40, 0x34})
	bits := append(append(append([]byte{}, pkt...), byteBits(0x00)...), pkt...)
	var readings []map[string]any
	events, err := Driver{}.Decode(context.Background(), transmit(bits), collect(&readings))
	if err != nil || events != 2 {
		t.Fatalf("Decode: events=%d err=%v", events, err)
	}
}

func TestDecodeRejectsCorruptedFrame(t *testing.T) {
	bits := packetBits([5]byte{0x0A, 0x12, 0x6E, 0x40, 0x34})
	// flip one logical payload bit: swap one manchester pair
	i := len(bits) - 60
	bits[i], bits[i+1] = bits[i+1], bits[i]
	var readings []map[string]any
	events, err := Driver{}.Decode(context.Background(), transmit(bits), collect(&readings))
	if events != 0 || len(readings) != 0 {
		t.Fatalf("corrupted frame decoded: events=%d", events)
	}
	if !errors.Is(err, frame.ErrIntegrity) {
		t.Fatalf("want ErrIntegrity, got %v", err)
	}
}

func TestDecodeEmptyBuffer(t *testing.T) {
	events, err := Driver{}.Decode(context.Background(),
		bitbuffer.NewFromBytes([]byte{0x12, 0x34, 0x56, 0x78}), func(map[string]any) {})
	if events != 0 || err != nil {
		t.Fatalf("noise buffer: events=%d err=%v", events, err)
	}
}

func TestExtract(t *testing.T) {
	cases := []struct {
		payload [5]byte
		want    Reading
	}{
		{
			payload: [5]byte{0x0A, 0x12, 0x6E, 0x40, 0x34},
			want: Reading{ID: "1234", Flags: 0x0A, BatteryLow: false,
				PressureBar: 1.0, PressureLossAlarm: false, TemperatureC: 55},
		},
		{
			payload: [5]byte{0x05, 0xBE, 0x0F, 0xA0, 0xEF},
			want: Reading{ID: "beef", Flags: 0x05, BatteryLow: true,
				PressureBar: 2.5, PressureLossAlarm: true, TemperatureC: -40},
		},
		{
			// high nibble of d[0] is the obfuscation key, never a flag
			payload: [5]byte{0xF0, 0x00, 0x37, 0x00, 0x00},
			want: Reading{ID: "0000", Flags: 0x00, BatteryLow: true,
				PressureBar: 0, PressureLossAlarm: true, TemperatureC: 0},
		},
		{
			payload: [5]byte{0x0F, 0xFF, 0xFF, 0xFF, 0xFF},
			want: Reading{ID: "ffff", Flags: 0x0F, BatteryLow: false,
				PressureBar: 3.984375, PressureLossAlarm: false, TemperatureC: 200},
		},
	}
	for _, tc := range cases {
		if got := extract(tc.payload); got != tc.want {
			t.Fatalf("extract(%x): got %+v want %+v", tc.payload, got, tc.want)
		}
	}
}

func TestExtractScaling(t *testing.T) {
	for raw := 0; raw < 256; raw++ {
		r := extract([5]byte{0, 0, byte(raw), byte(raw), 0})
		if r.PressureBar != float64(raw)/64 {
			t.Fatalf("pressure for raw %d: got %v", raw, r.PressureBar)
		}
		if r.TemperatureC != raw-55 {
			t.Fatalf("temperature for raw %d: got %v", raw, r.TemperatureC)
		}
	}
}

func TestExtractIDFormatting(t *testing.T) {
	for _, id := range []uint16{0x0000, 0x000F, 0x1234, 0xABCD, 0xFFFF} {
		r := extract([5]byte{0, byte(id >> 8), 0, 0, byte(id)})
		if want := fmt.Sprintf("%04x", id); r.ID != want {
			t.Fatalf("id 0x%04X: got %q want %q", id, r.ID, want)
		}
	}
}

func TestExtractFlagPolarity(t *testing.T) {
	for flags := 0; flags < 16; flags++ {
		r := extract([5]byte{byte(flags), 0, 0, 0, 0})
		if r.BatteryLow != (flags&0x02 == 0) {
			t.Fatalf("flags 0x%X: BatteryLow=%v", flags, r.BatteryLow)
		}
		if r.PressureLossAlarm != (flags&0x08 == 0) {
			t.Fatalf("flags 0x%X: PressureLossAlarm=%v", flags, r.PressureLossAlarm)
		}
	}
}

func TestModulation(t *testing.T) {
	m := Driver{}.Modulation()
	if m.Mode != "FSK_PCM" || m.CenterFreqHz != 433920000 {
		t.Fatalf("unexpected modulation: %+v", m)
	}
	if m.ShortWidth != 52 || m.LongWidth != 52 || m.ResetLimit != 150 {
		t.Fatalf("unexpected timing: %+v", m)
	}
}
