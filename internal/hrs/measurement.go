// Package hrs decodes the Bluetooth Heart Rate Service "Heart Rate
// Measurement" characteristic payload (org.bluetooth.characteristic.2a37).
//
// The payload is a flags byte followed by a variable set of fields whose
// presence and width are selected by the flags:
//
//	| 0x10 | 0x08 | 0x04 0x02 | 0x01 |
//	|  rr  | nrg  | scs  cnt  | fmt  |
//
// Decoding is pure; retry and reconnection policy live in the ble package.
package hrs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedPayload is returned when a notification payload is shorter
// than the length its own flags byte declares.
var ErrMalformedPayload = errors.New("hrs: malformed payload")

// Flags byte bits.
const (
	flagFormat16         = 0x01 // heart rate value is uint16 (else uint8)
	flagContactDetected  = 0x02
	flagContactSupported = 0x04
	flagEnergyExpended   = 0x08 // 16-bit energy expended field present
	flagRRPresent        = 0x10 // one or more 16-bit RR-interval fields follow
)

// ContactStatus is the sensor contact state reported in flags bits 1-2.
type ContactStatus int

// The four sensor contact states. The HRS profile reserves two patterns for
// "feature not supported"; we keep them apart as Unknown (0b00) and
// NotSupported (0b01) so callers can tell which one the device sent.
const (
	ContactUnknown ContactStatus = iota
	ContactNotSupported
	ContactNotDetected
	ContactDetected
)

func (s ContactStatus) String() string {
	switch s {
	case ContactUnknown:
		return "unknown"
	case ContactNotSupported:
		return "not-supported"
	case ContactNotDetected:
		return "not-detected"
	case ContactDetected:
		return "detected"
	default:
		return fmt.Sprintf("ContactStatus(%d)", int(s))
	}
}

// Measurement is a single decoded heart rate notification. Immutable:
// a new value is produced per notification and superseded by the next.
type Measurement struct {
	BPM            uint16
	EnergyExpended bool   // energy expended field was present
	EnergyKJ       uint16 // kilojoules, valid only if EnergyExpended
	RRIntervals    []uint16
	Contact        ContactStatus
	ReceivedAt     time.Time
}

// RRDurations converts the raw RR intervals (1/1024 second units) to
// time.Durations.
func (m Measurement) RRDurations() []time.Duration {
	if len(m.RRIntervals) == 0 {
		return nil
	}
	out := make([]time.Duration, len(m.RRIntervals))
	for i, rr := range m.RRIntervals {
		out[i] = time.Duration(rr) * time.Second / 1024
	}
	return out
}

// Decode parses a Heart Rate Measurement notification payload received at
// the given time. A payload shorter than the length implied by its flags
// byte fails with ErrMalformedPayload; no partial measurement is produced.
// Trailing bytes beyond the declared fields are ignored (the profile allows
// future flag bits to append fields).
func Decode(data []byte, at time.Time) (Measurement, error) {
	if len(data) < 2 {
		return Measurement{}, fmt.Errorf("%w: %d byte(s), need flags and a heart rate value", ErrMalformedPayload, len(data))
	}

	flags := data[0]
	m := Measurement{
		Contact:    ContactStatus((flags >> 1) & 0x3),
		ReceivedAt: at,
	}
	offset := 1

	if flags&flagFormat16 != 0 {
		if len(data) < offset+2 {
			return Measurement{}, fmt.Errorf("%w: flags declare a 16-bit heart rate value but payload is %d bytes", ErrMalformedPayload, len(data))
		}
		m.BPM = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	} else {
		m.BPM = uint16(data[offset])
		offset++
	}

	if flags&flagEnergyExpended != 0 {
		if len(data) < offset+2 {
			return Measurement{}, fmt.Errorf("%w: flags declare an energy expended field but payload is %d bytes", ErrMalformedPayload, len(data))
		}
		m.EnergyExpended = true
		m.EnergyKJ = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	}

	if flags&flagRRPresent != 0 {
		rest := data[offset:]
		if len(rest) == 0 || len(rest)%2 != 0 {
			return Measurement{}, fmt.Errorf("%w: flags declare RR intervals but %d byte(s) remain", ErrMalformedPayload, len(rest))
		}
		m.RRIntervals = make([]uint16, 0, len(rest)/2)
		for i := 0; i+1 < len(rest); i += 2 {
			m.RRIntervals = append(m.RRIntervals, binary.LittleEndian.Uint16(rest[i:]))
		}
	}

	return m, nil
}
