package hrs

import (
	"errors"
	"testing"
	"time"
)

var at = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Measurement
	}{
		{
			name: "8-bit value, no optional fields",
			data: []byte{0x00, 80},
			want: Measurement{BPM: 80, Contact: ContactUnknown},
		},
		{
			name: "16-bit value",
			data: []byte{0x01, 0x2c, 0x01}, // 300 bpm, little-endian
			want: Measurement{BPM: 300, Contact: ContactUnknown},
		},
		{
			name: "contact supported and detected",
			data: []byte{0x06, 72},
			want: Measurement{BPM: 72, Contact: ContactDetected},
		},
		{
			name: "contact supported, not detected",
			data: []byte{0x04, 0},
			want: Measurement{BPM: 0, Contact: ContactNotDetected},
		},
		{
			name: "contact not supported",
			data: []byte{0x02, 65},
			want: Measurement{BPM: 65, Contact: ContactNotSupported},
		},
		{
			name: "energy expended present",
			data: []byte{0x08, 90, 0xe8, 0x03},
			want: Measurement{BPM: 90, EnergyExpended: true, EnergyKJ: 1000, Contact: ContactUnknown},
		},
		{
			name: "single RR interval",
			data: []byte{0x10, 75, 0x00, 0x04}, // 1024 = exactly one second
			want: Measurement{BPM: 75, RRIntervals: []uint16{1024}, Contact: ContactUnknown},
		},
		{
			name: "multiple RR intervals preserve order",
			data: []byte{0x10, 75, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00},
			want: Measurement{BPM: 75, RRIntervals: []uint16{1, 2, 3}, Contact: ContactUnknown},
		},
		{
			name: "everything at once",
			data: []byte{0x1f, 0x50, 0x00, 0x10, 0x00, 0x00, 0x04},
			want: Measurement{
				BPM:            80,
				EnergyExpended: true,
				EnergyKJ:       16,
				RRIntervals:    []uint16{1024},
				Contact:        ContactDetected,
			},
		},
		{
			name: "trailing bytes without RR flag are ignored",
			data: []byte{0x00, 80, 0xde, 0xad},
			want: Measurement{BPM: 80, Contact: ContactUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, at)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.BPM != tt.want.BPM {
				t.Errorf("BPM = %d, want %d", got.BPM, tt.want.BPM)
			}
			if got.EnergyExpended != tt.want.EnergyExpended {
				t.Errorf("EnergyExpended = %v, want %v", got.EnergyExpended, tt.want.EnergyExpended)
			}
			if got.EnergyKJ != tt.want.EnergyKJ {
				t.Errorf("EnergyKJ = %d, want %d", got.EnergyKJ, tt.want.EnergyKJ)
			}
			if got.Contact != tt.want.Contact {
				t.Errorf("Contact = %v, want %v", got.Contact, tt.want.Contact)
			}
			if len(got.RRIntervals) != len(tt.want.RRIntervals) {
				t.Fatalf("RRIntervals = %v, want %v", got.RRIntervals, tt.want.RRIntervals)
			}
			for i := range got.RRIntervals {
				if got.RRIntervals[i] != tt.want.RRIntervals[i] {
					t.Errorf("RRIntervals[%d] = %d, want %d", i, got.RRIntervals[i], tt.want.RRIntervals[i])
				}
			}
			if !got.ReceivedAt.Equal(at) {
				t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, at)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty payload", nil},
		{"flags only", []byte{0x00}},
		{"16-bit value truncated", []byte{0x01, 80}},
		{"energy field truncated", []byte{0x08, 80, 0x01}},
		{"energy field missing", []byte{0x08, 80}},
		{"RR flag with no RR bytes", []byte{0x10, 80}},
		{"RR interval truncated", []byte{0x10, 80, 0x01}},
		{"odd RR byte count", []byte{0x10, 80, 0x01, 0x00, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, at)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("Decode(%v) error = %v, want ErrMalformedPayload", tt.data, err)
			}
		})
	}
}

func TestRRDurations(t *testing.T) {
	m := Measurement{RRIntervals: []uint16{1024, 512}}
	got := m.RRDurations()
	want := []time.Duration{time.Second, 500 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("RRDurations() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("RRDurations()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if d := (Measurement{}).RRDurations(); d != nil {
		t.Errorf("RRDurations() on empty = %v, want nil", d)
	}
}

func TestContactStatusString(t *testing.T) {
	cases := map[ContactStatus]string{
		ContactUnknown:      "unknown",
		ContactNotSupported: "not-supported",
		ContactNotDetected:  "not-detected",
		ContactDetected:     "detected",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
