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
	"bytes"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"sigs.k8s.io/yaml"
)

const (
	// MeasurementLayerNum identifies the layer
	MeasurementLayerNum = 2103
	// MeasurementSize is the fixed part of a measurement payload
	MeasurementSize = 16
	// ValueSize is the width of the value text field
	ValueSize = 6

	measurementModeOffset   = 1
	measurementRangeOffset  = 2
	measurementValueOffset  = 3
	measurementStatusOffset = measurementValueOffset + ValueSize
)

// Measurement is a decoded measurement payload.
//
//	offset size
//	0      1    record type (0x02)
//	1      1    mode index
//	2      1    range index as ASCII digit
//	3      6    value text
//	9      7    status bitfield
type Measurement struct {
	RecordType uint8       `json:"recordType"`
	ModeIndex  int         `json:"modeIndex"`
	RangeIndex int         `json:"rangeIndex"`
	RawValue   string      `json:"rawValue"`
	Status     StatusFlags `json:"status"`
	// Trailer holds payload bytes beyond the fixed layout.
	Trailer []byte `json:"trailer,omitempty"`
}

// DecodeMeasurement decodes a measurement payload, tag byte included.
func DecodeMeasurement(payload []byte) (*Measurement, error) {
	if len(payload) < MeasurementSize {
		return nil, ErrShortPayload{What: "measurement", Got: len(payload), Want: MeasurementSize}
	}
	m := &Measurement{
		RecordType: payload[0],
		ModeIndex:  int(payload[measurementModeOffset]),
		RangeIndex: int(payload[measurementRangeOffset]) - '0',
	}
	if _, _, _, err := Lookup(m.ModeIndex, m.RangeIndex); err != nil {
		return nil, err
	}
	m.RawValue = string(bytes.TrimRight(payload[measurementValueOffset:measurementStatusOffset], "\x00"))
	m.Status = DecodeStatus(payload[measurementStatusOffset:MeasurementSize])
	if len(payload) > MeasurementSize {
		m.Trailer = append([]byte(nil), payload[MeasurementSize:]...)
	}
	return m, nil
}

// EncodeMeasurement builds a measurement payload. It is the inverse of
// DecodeMeasurement and is used to synthesize instrument traffic.
func EncodeMeasurement(m *Measurement) ([]byte, error) {
	if _, _, _, err := Lookup(m.ModeIndex, m.RangeIndex); err != nil {
		return nil, err
	}
	if m.RangeIndex > 9 {
		return nil, ErrEncoding{What: "range index does not fit one ASCII digit"}
	}
	if len(m.RawValue) > ValueSize {
		return nil, ErrEncoding{What: "value text longer than 6 bytes"}
	}
	payload := make([]byte, MeasurementSize, MeasurementSize+len(m.Trailer))
	payload[0] = byte(PayloadTagMeasurement)
	payload[measurementModeOffset] = byte(m.ModeIndex)
	payload[measurementRangeOffset] = byte('0' + m.RangeIndex)
	copy(payload[measurementValueOffset:measurementStatusOffset], m.RawValue)
	copy(payload[measurementStatusOffset:], m.Status.Raw[:])
	return append(payload, m.Trailer...), nil
}

func (m *Measurement) ModeName() string {
	return Modes[m.ModeIndex].Name
}

func (m *Measurement) Unit() string {
	return Modes[m.ModeIndex].Units[m.RangeIndex]
}

func (m *Measurement) RangeLabel() string {
	return Modes[m.ModeIndex].Ranges[m.RangeIndex]
}

// Reading returns the presentation view of the measurement taken at ts.
func (m *Measurement) Reading(ts time.Time) Reading {
	return Reading{
		Timestamp: ts,
		Mode:      m.ModeName(),
		Range:     m.RangeLabel(),
		Value:     m.RawValue,
		Unit:      m.Unit(),
		Flags:     NewReadingFlags(m.Status),
	}
}

func (m *Measurement) String() string {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// MeasurementLayer wraps a Measurement into the gopacket layer chain.
type MeasurementLayer struct {
	layers.BaseLayer
	Measurement *Measurement
}

var MeasurementLayerType = gopacket.RegisterLayerType(MeasurementLayerNum,
	gopacket.LayerTypeMetadata{Name: "MeasurementLayerType", Decoder: gopacket.DecodeFunc(decodeMeasurementLayer)})

func (l *MeasurementLayer) LayerType() gopacket.LayerType {
	return MeasurementLayerType
}

func (l *MeasurementLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	m, err := DecodeMeasurement(data)
	if err != nil {
		return err
	}
	l.BaseLayer = layers.BaseLayer{
		Contents: data,
		Payload:  []byte{},
	}
	l.Measurement = m
	return nil
}

func decodeMeasurementLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &MeasurementLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(l)
	return nil
}
