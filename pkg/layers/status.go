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

// StatusSize is the width of the status bitfield in bytes.
const StatusSize = 7

// Bit positions inside the status field. Bit 0 is the most significant bit
// of the first byte.
const (
	StatusBitOL       = 21
	StatusBitErr      = 22
	StatusBitHold     = 23
	StatusBitManRange = 30
	StatusBitRel      = 31
	StatusBitMax      = 38
	StatusBitMin      = 39
	StatusBitForward  = 46
	StatusBitReverse  = 47
)

// StatusBitNames names the known bits. Every other bit is reserved.
var StatusBitNames = map[int]string{
	StatusBitOL:       "OL",
	StatusBitErr:      "err",
	StatusBitHold:     "Hold",
	StatusBitManRange: "manrange",
	StatusBitRel:      "rel",
	StatusBitMax:      "max",
	StatusBitMin:      "min",
	StatusBitForward:  "forward",
	StatusBitReverse:  "reverse",
}

type Polarity int

const (
	PolarityNone Polarity = iota
	PolarityForward
	PolarityReverse
	// PolarityBoth is reported when both diode bits are set. The wire format
	// does not forbid it.
	PolarityBoth
)

var polarityNames = map[Polarity]string{
	PolarityNone:    "",
	PolarityForward: "forward",
	PolarityReverse: "reverse",
	PolarityBoth:    "both",
}

func (p Polarity) String() string {
	return polarityNames[p]
}

func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Polarity) UnmarshalText(text []byte) error {
	for k, v := range polarityNames {
		if v == string(text) {
			*p = k
			return nil
		}
	}
	*p = PolarityNone
	return nil
}

// StatusFlags is the decoded status bitfield. Raw keeps all 56 bits so the
// reserved ones stay available for inspection.
type StatusFlags struct {
	OL       bool    `json:"OL"`
	Err      bool    `json:"err"`
	Hold     bool    `json:"Hold"`
	ManRange bool    `json:"manrange"`
	Rel      bool    `json:"rel"`
	Max      bool    `json:"max"`
	Min      bool    `json:"min"`
	Forward  bool    `json:"forward"`
	Reverse  bool    `json:"reverse"`
	Raw      [7]byte `json:"raw"`
}

func bitSet(raw []byte, bit int) bool {
	return raw[bit/8]&(0x80>>uint(bit%8)) != 0
}

// SetStatusBit sets a bit of a raw status field.
func SetStatusBit(raw *[StatusSize]byte, bit int) {
	raw[bit/8] |= 0x80 >> uint(bit%8)
}

// DecodeStatus decodes the first StatusSize bytes of data.
func DecodeStatus(data []byte) StatusFlags {
	var s StatusFlags
	copy(s.Raw[:], data)
	raw := s.Raw[:]
	s.OL = bitSet(raw, StatusBitOL)
	s.Err = bitSet(raw, StatusBitErr)
	s.Hold = bitSet(raw, StatusBitHold)
	s.ManRange = bitSet(raw, StatusBitManRange)
	s.Rel = bitSet(raw, StatusBitRel)
	s.Max = bitSet(raw, StatusBitMax)
	s.Min = bitSet(raw, StatusBitMin)
	s.Forward = bitSet(raw, StatusBitForward)
	s.Reverse = bitSet(raw, StatusBitReverse)
	return s
}

// Bit reports whether bit i (0..55) is set.
func (s StatusFlags) Bit(i int) bool {
	if i < 0 || i >= StatusSize*8 {
		return false
	}
	return bitSet(s.Raw[:], i)
}

// Auto reports automatic ranging.
func (s StatusFlags) Auto() bool {
	return !s.ManRange
}

func (s StatusFlags) Polarity() Polarity {
	switch {
	case s.Forward && s.Reverse:
		return PolarityBoth
	case s.Forward:
		return PolarityForward
	case s.Reverse:
		return PolarityReverse
	}
	return PolarityNone
}

// Reserved returns the raw field with all named bits cleared, as a 56 bit
// big-endian integer.
func (s StatusFlags) Reserved() uint64 {
	var v uint64
	for _, b := range s.Raw {
		v = v<<8 | uint64(b)
	}
	for bit := range StatusBitNames {
		v &^= 1 << uint(StatusSize*8-1-bit)
	}
	return v
}

// ReservedSet lists the positions of set reserved bits in ascending order.
func (s StatusFlags) ReservedSet() []int {
	var result []int
	for i := 0; i < StatusSize*8; i++ {
		if _, named := StatusBitNames[i]; named {
			continue
		}
		if s.Bit(i) {
			result = append(result, i)
		}
	}
	return result
}
