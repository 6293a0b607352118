// Package frame validates the 9-byte Careud air frame recovered from a
// Manchester-decoded window.
package frame

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/vschepin/gotpms/internal/crc"
)

const (
	// SyncWord opens every frame.
	SyncWord = 0x19CF
	// Length is the framed packet size: sync(2) + payload(5) + crc(2).
	Length = 9
	// PayloadLength is the number of obfuscated payload bytes.
	PayloadLength = 5

	crcPolynomial = 0x8005
	crcInitial    = 0x0000
)

var (
	// ErrSync rejects windows whose first two bytes are not the sync word.
	ErrSync = errors.New("sync word mismatch")
	// ErrIntegrity rejects frames with a nonzero CRC-16/BUYPASS residue.
	ErrIntegrity = errors.New("crc mismatch")
)

// Packet is one validated frame. Payload holds the bytes exactly as
// transmitted, still obfuscated.
type Packet struct {
	Raw     [Length]byte
	Payload [PayloadLength]byte
	CRC     uint16
}

// Parse validates sync word and integrity of a decoded window and splits it
// into its fields. The CRC residue is computed over the payload and CRC
// bytes as transmitted, before descrambling; the sensor computes its
// checksum over the obfuscated bytes.
func Parse(window []byte) (Packet, error) {
	if len(window) < Length {
		return Packet{}, fmt.Errorf("frame too short: %d bytes", len(window))
	}
	if sync := uint16(window[0])<<8 | uint16(window[1]); sync != SyncWord {
		return Packet{}, fmt.Errorf("%w: got 0x%04x", ErrSync, sync)
	}
	if residue := crc.CRC16(window[2:Length], crcPolynomial, crcInitial); residue != 0 {
		return Packet{}, fmt.Errorf("%w: residue 0x%04x over %x", ErrIntegrity, residue, window[2:Length])
	}
	var p Packet
	copy(p.Raw[:], window[:Length])
	copy(p.Payload[:], window[2:2+PayloadLength])
	p.CRC = uint16(window[7])<<8 | uint16(window[8])
	return p, nil
}

// CodeString renders the framed bytes as hex for diagnostics.
func (p Packet) CodeString() string {
	return hex.EncodeToString(p.Raw[:])
}
