package careud

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vschepin/gotpms/internal/bitbuffer"
	"github.com/vschepin/gotpms/internal/driver"
	"github.com/vschepin/gotpms/internal/frame"
	"github.com/vschepin/gotpms/internal/options"
	"github.com/vschepin/gotpms/internal/scramble"
)

const (
	temperatureOffset = 55
	pressureScale     = 64

	// Low-nibble flag bits. A set bit means "OK". Bits 0x01 and 0x04 have no
	// known meaning and are surfaced only through the raw Flags value.
	flagBatteryOK  = 0x02
	flagPressureOK = 0x08
)

var errShortWindow = errors.New("short manchester window")

// Reading is one decoded TPMS report.
type Reading struct {
	ID                string
	Flags             int
	BatteryLow        bool
	PressureBar       float64
	PressureLossAlarm bool
	TemperatureC      int
}

// decodeWindow runs one decode attempt at bitpos. Any returned error is a
// per-window rejection, never fatal to the reception event.
func (d Driver) decodeWindow(ctx context.Context, buf *bitbuffer.Buffer, row, bitpos int, sink driver.Sink) error {
	window, _ := bitbuffer.ManchesterDecode(buf, row, bitpos, windowBits)
	if got := window.BitsPerRow(0); got < windowBits {
		return fmt.Errorf("%w: %d of %d bits", errShortWindow, got, windowBits)
	}
	pkt, err := frame.Parse(window.Row(0))
	if err != nil {
		if errors.Is(err, frame.ErrIntegrity) {
			logrus.WithField("decoder", d.Name()).Debugf("rejecting window: %v", err)
		}
		return err
	}

	payload := pkt.Payload
	scramble.Descramble(payload[:])
	emit(extract(payload), pkt, payload, options.ShowRaw(ctx), sink)
	return nil
}

// extract maps the descrambled payload bytes to reading fields.
func extract(d [frame.PayloadLength]byte) Reading {
	flags := int(d[0] & 0x0F)
	return Reading{
		ID:                fmt.Sprintf("%04x", uint16(d[1])<<8|uint16(d[4])),
		Flags:             flags,
		BatteryLow:        flags&flagBatteryOK == 0,
		PressureBar:       float64(d[3]) / pressureScale,
		PressureLossAlarm: flags&flagPressureOK == 0,
		TemperatureC:      int(d[2]) - temperatureOffset,
	}
}

// emit assembles the named-field record and hands it to the sink.
func emit(r Reading, pkt frame.Packet, data [frame.PayloadLength]byte, showRaw bool, sink driver.Sink) {
	battery := "LOW"
	if !r.BatteryLow {
		battery = "OK"
	}
	pressureLoss := "ALARM"
	if !r.PressureLossAlarm {
		pressureLoss = "OK"
	}
	fields := map[string]any{
		"model":         "Careud",
		"type":          "TPMS",
		"id":            r.ID,
		"flags":         r.Flags,
		"battery":       battery,
		"pressure_BAR":  fmt.Sprintf("%.2f BAR", r.PressureBar),
		"pressure_loss": pressureLoss,
		"temperature_C": fmt.Sprintf("%d C", r.TemperatureC),
		"mic":           "CRC",
	}
	if showRaw {
		fields["pressure_RAW"] = int(data[3])
		fields["temperature_RAW"] = int(data[2])
		fields["code"] = pkt.CodeString()
		fields["data"] = hex.EncodeToString(data[:])
	}
	sink(fields)
}
