/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package layers

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func measurementPayload(mode, rng byte, value string, status [StatusSize]byte) []byte {
	payload := make([]byte, MeasurementSize)
	payload[0] = byte(PayloadTagMeasurement)
	payload[1] = mode
	payload[2] = rng
	copy(payload[3:9], value)
	copy(payload[9:], status[:])
	return payload
}

func TestDecodeMeasurementScenario(t *testing.T) {
	var status [StatusSize]byte
	SetStatusBit(&status, StatusBitOL)
	m, err := DecodeMeasurement(measurementPayload(0x01, 0x31, " 1.234", status))
	if err != nil {
		t.Fatal(err)
	}
	if m.ModeIndex != 1 || m.ModeName() != "DC Voltage" {
		t.Errorf("mode %d %q", m.ModeIndex, m.ModeName())
	}
	if m.RangeIndex != 1 {
		t.Errorf("range %d", m.RangeIndex)
	}
	if m.RawValue != " 1.234" {
		t.Errorf("value %q", m.RawValue)
	}
	if m.Unit() != Modes[1].Units[1] || m.RangeLabel() != Modes[1].Ranges[1] {
		t.Errorf("unit %q range %q", m.Unit(), m.RangeLabel())
	}
	want := StatusFlags{OL: true, Raw: status}
	if m.Status != want {
		t.Errorf("status %+v, want %+v", m.Status, want)
	}
	if len(m.Status.ReservedSet()) != 0 {
		t.Errorf("reserved bits %v", m.Status.ReservedSet())
	}
}

func TestDecodeMeasurementErrors(t *testing.T) {
	var status [StatusSize]byte
	tests := []struct {
		name    string
		payload []byte
		mode    int
		rng     int
	}{
		{"mode 23", measurementPayload(23, '0', "0", status), 23, 0},
		{"mode 255", measurementPayload(255, '0', "0", status), 255, 0},
		{"range beyond one digit", measurementPayload(1, ':', "0", status), 1, 10},
		{"range not a digit", measurementPayload(1, '/', "0", status), 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMeasurement(tt.payload)
			var idx ErrInvalidIndex
			if !errors.As(err, &idx) {
				t.Fatalf("want ErrInvalidIndex, got %v", err)
			}
			if idx.Mode != tt.mode || idx.Range != tt.rng {
				t.Errorf("got %+v", idx)
			}
			if idx.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	_, err := DecodeMeasurement([]byte{0x02, 0x01, '1'})
	if !errors.As(err, new(ErrShortPayload)) {
		t.Fatalf("want ErrShortPayload, got %v", err)
	}
}

func TestMeasurementTrailerAndEncode(t *testing.T) {
	var status [StatusSize]byte
	SetStatusBit(&status, StatusBitHold)
	SetStatusBit(&status, StatusBitForward)
	src := &Measurement{
		RecordType: byte(PayloadTagMeasurement),
		ModeIndex:  10,
		RangeIndex: 0,
		RawValue:   "0.512",
		Status:     DecodeStatus(status[:]),
		Trailer:    []byte{0x0d, 0x0a},
	}
	payload, err := EncodeMeasurement(src)
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeMeasurement(payload)
	if err != nil {
		t.Fatal(err)
	}
	if m.RawValue != "0.512" {
		t.Errorf("value %q", m.RawValue)
	}
	if string(m.Trailer) != "\r\n" {
		t.Errorf("trailer % x", m.Trailer)
	}
	r := m.Reading(time.Unix(0, 0))
	if r.Mode != "Diode" || !r.Flags.Hold || r.Flags.Polarity != PolarityForward || !r.Flags.Auto {
		t.Errorf("reading %+v", r)
	}
	if r.Flags.String() != "Hold auto forward" {
		t.Errorf("flags %q", r.Flags.String())
	}
	if m.String() == "" {
		t.Error("empty dump")
	}
}

func TestReadingRedacted(t *testing.T) {
	r := Reading{Value: "OL", Flags: ReadingFlags{OL: true}}
	if r.Redacted().Value != "" {
		t.Error("OL value not redacted")
	}
	if r.Value != "OL" {
		t.Error("Redacted modified the receiver")
	}
	r = Reading{Value: "1.000"}
	if r.Redacted().Value != "1.000" {
		t.Error("valid value redacted")
	}
}

func TestModeTable(t *testing.T) {
	if len(Modes) != 23 {
		t.Fatalf("%d modes", len(Modes))
	}
	for i, m := range Modes {
		if m.Name == "" {
			t.Errorf("mode %d has no name", i)
		}
		if len(m.Units) != len(m.Ranges) || len(m.Units) == 0 {
			t.Errorf("mode %d (%s): %d units, %d ranges", i, m.Name, len(m.Units), len(m.Ranges))
		}
	}
	if _, _, _, err := Lookup(NumModes, 0); !errors.As(err, new(ErrInvalidIndex)) {
		t.Errorf("want ErrInvalidIndex, got %v", err)
	}
	name, unit, rng, err := Lookup(1, 0)
	if err != nil || name != "DC Voltage" || unit != "V" || rng != "range 0" {
		t.Errorf("Lookup(1, 0) = %q %q %q %v", name, unit, rng, err)
	}
}

func TestModeUnits(t *testing.T) {
	units := []string{
		"V", "V", "µA", "mA", "A", "µA", "mA", "A", "Ohm", "", "",
		"Inductance L", "Inductance Q", "Inductance R",
		"Capacitance C", "Capacitance D", "Capacitance R",
		"Triode hFE", "Thyrisor SCR", "C", "F", "Hz", "%",
	}
	for i, m := range Modes {
		if len(m.Ranges) != NumRanges {
			t.Errorf("mode %d (%s): %d ranges", i, m.Name, len(m.Ranges))
		}
		for r := range m.Units {
			if m.Units[r] != units[i] {
				t.Errorf("mode %d range %d: unit %q, want %q", i, r, m.Units[r], units[i])
			}
			if want := fmt.Sprintf("range %d", r); m.Ranges[r] != want {
				t.Errorf("mode %d range %d: label %q, want %q", i, r, m.Ranges[r], want)
			}
		}
	}
}

func TestDecodeMeasurementAnyDigit(t *testing.T) {
	var status [StatusSize]byte
	tests := []struct {
		mode byte
		rng  byte
		unit string
	}{
		{10, '1', ""},
		{1, '5', "V"},
		{19, '1', "C"},
		{22, '9', "%"},
	}
	for _, tt := range tests {
		t.Run(Modes[tt.mode].Name, func(t *testing.T) {
			m, err := DecodeMeasurement(measurementPayload(tt.mode, tt.rng, "0.000", status))
			if err != nil {
				t.Fatal(err)
			}
			if m.Unit() != tt.unit {
				t.Errorf("unit %q, want %q", m.Unit(), tt.unit)
			}
			if want := fmt.Sprintf("range %d", tt.rng-'0'); m.RangeLabel() != want {
				t.Errorf("range %q, want %q", m.RangeLabel(), want)
			}
		})
	}
}
