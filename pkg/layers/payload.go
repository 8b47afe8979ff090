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
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func init() {
	initUnknownPayloadTags()
	initActualPayloadTags()
}

// PayloadTag is the first payload byte. It selects how the rest of the
// payload is decoded.
type PayloadTag uint8

const (
	PayloadTagIdentification PayloadTag = 0x00
	PayloadTagMeasurement    PayloadTag = 0x02
)

type errorDecoderForPayloadTag uint8

func (e errorDecoderForPayloadTag) Decode(data []byte, p gopacket.PacketBuilder) error {
	return ErrUnknownPayloadTag{Tag: uint8(e)}
}

var errorDecodersForPayloadTag [256]errorDecoderForPayloadTag
var PayloadTagMetadata [256]layers.EnumMetadata

func initUnknownPayloadTags() {
	for i := 0; i < 256; i++ {
		errorDecodersForPayloadTag[i] = errorDecoderForPayloadTag(i)
		PayloadTagMetadata[i] = layers.EnumMetadata{
			DecodeWith: errorDecodersForPayloadTag[i],
			Name:       "UnknownPayloadTag",
		}
	}
}

func initActualPayloadTags() {
	PayloadTagMetadata[PayloadTagIdentification] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(decodeIdentificationLayer), Name: "Identification", LayerType: IdentificationLayerType}
	PayloadTagMetadata[PayloadTagMeasurement] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(decodeMeasurementLayer), Name: "Measurement", LayerType: MeasurementLayerType}
}

// LayerType returns PayloadTagMetadata.LayerType
func (t PayloadTag) LayerType() gopacket.LayerType {
	return PayloadTagMetadata[t].LayerType
}

// Decode calls PayloadTagMetadata.DecodeWith's decoder
func (t PayloadTag) Decode(data []byte, p gopacket.PacketBuilder) error {
	return PayloadTagMetadata[t].DecodeWith.Decode(data, p)
}

// String returns PayloadTagMetadata.Name
func (t PayloadTag) String() string {
	return PayloadTagMetadata[t].Name
}

// Known reports whether a decoder is registered for the tag
func (t PayloadTag) Known() bool {
	return PayloadTagMetadata[t].LayerType != gopacket.LayerTypeZero
}
