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
	"unicode/utf8"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// IdentificationLayerNum identifies the layer
	IdentificationLayerNum = 2102
)

// IdentificationLayer carries the instrument ID string that follows the tag.
type IdentificationLayer struct {
	layers.BaseLayer
	ID string
}

var IdentificationLayerType = gopacket.RegisterLayerType(IdentificationLayerNum,
	gopacket.LayerTypeMetadata{Name: "IdentificationLayerType", Decoder: gopacket.DecodeFunc(decodeIdentificationLayer)})

func (l *IdentificationLayer) LayerType() gopacket.LayerType {
	return IdentificationLayerType
}

func (l *IdentificationLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	id, err := DecodeIdentification(data)
	if err != nil {
		return err
	}
	l.BaseLayer = layers.BaseLayer{
		Contents: data,
		Payload:  []byte{},
	}
	l.ID = id
	return nil
}

func decodeIdentificationLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &IdentificationLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(l)
	return nil
}

// DecodeIdentification returns the ID string of an identification payload
// (tag byte included).
func DecodeIdentification(payload []byte) (string, error) {
	if len(payload) < 1 {
		return "", ErrShortPayload{What: "identification", Got: len(payload), Want: 1}
	}
	raw := payload[1:]
	if !utf8.Valid(raw) {
		return "", ErrMalformedIdentification{Data: append([]byte(nil), raw...)}
	}
	return string(raw), nil
}
