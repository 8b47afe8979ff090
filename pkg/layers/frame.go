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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// FrameLayerNum identifies the layer
	FrameLayerNum = 2101
	// Signature is the magic number that starts each frame
	Signature uint16 = 0xabcd
	// SignatureSize is the size of the signature in bytes
	SignatureSize = 2
	// HeaderSize is signature plus length byte
	HeaderSize = 3
	// ChecksumSize is the size of the trailing checksum
	ChecksumSize = 2
	// MinFrameSize is the size of a frame with empty payload
	MinFrameSize = HeaderSize + ChecksumSize
	// LengthOverhead is what the length byte counts on top of the payload.
	LengthOverhead = 2
	// MaxPayloadSize is the largest payload the length byte can describe
	MaxPayloadSize = 0xff - LengthOverhead
)

// SignatureBytes is the signature as it appears on the wire.
var SignatureBytes = []byte{0xab, 0xcd}

// FrameLayer is one signature delimited protocol unit:
//
//	[0xAB][0xCD][LEN][PAYLOAD(LEN-2)][CHECKSUM_H][CHECKSUM_L]
//
// The checksum is the plain sum of signature, length and payload bytes.
type FrameLayer struct {
	layers.BaseLayer
	Signature uint16
	Length    uint8
	Checksum  uint16
	// Sum is the computed byte sum. It is never truncated to 16 bits.
	Sum uint32
	// ChecksumValid is false when Sum and Checksum disagree. Such frames are
	// still decoded so the caller can decide what to do with them.
	ChecksumValid bool
	raw           []byte
}

var FrameLayerType = gopacket.RegisterLayerType(FrameLayerNum,
	gopacket.LayerTypeMetadata{Name: "FrameLayerType", Decoder: gopacket.DecodeFunc(decodeFrameLayer)})

// LayerType returns the type of the frame layer in the layer catalog
func (f *FrameLayer) LayerType() gopacket.LayerType {
	return FrameLayerType
}

func (f *FrameLayer) CanDecode() gopacket.LayerClass {
	return FrameLayerType
}

// NextLayerType returns the layer type selected by the payload tag
func (f *FrameLayer) NextLayerType() gopacket.LayerType {
	tag, ok := f.Tag()
	if !ok {
		return gopacket.LayerTypeZero
	}
	return tag.LayerType()
}

// Tag returns the first payload byte. ok is false for an empty payload.
func (f *FrameLayer) Tag() (tag PayloadTag, ok bool) {
	if len(f.Payload) == 0 {
		return 0, false
	}
	return PayloadTag(f.Payload[0]), true
}

// Size returns the number of wire bytes the frame occupies
func (f *FrameLayer) Size() int {
	return HeaderSize + len(f.Payload) + ChecksumSize
}

// Bytes returns the wire bytes of a decoded frame
func (f *FrameLayer) Bytes() []byte {
	return f.raw
}

// VerifyChecksum returns ErrChecksumMismatch if the frame is corrupted
func (f *FrameLayer) VerifyChecksum() error {
	if f.ChecksumValid {
		return nil
	}
	return ErrChecksumMismatch{Want: f.Checksum, Got: f.Sum}
}

func (f *FrameLayer) String() string {
	return fmt.Sprintf("Frame{Length: %d, Payload: % x, Checksum: 0x%04x, Sum: 0x%04x, Valid: %t}",
		f.Length, f.Payload, f.Checksum, f.Sum, f.ChecksumValid)
}

// DecodeFromBytes attempts to decode the byte slice as a frame. Data beyond
// the frame is ignored.
func (f *FrameLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < HeaderSize {
		df.SetTruncated()
		return ErrNeedMoreData
	}
	sig := binary.BigEndian.Uint16(data[0:2])
	if sig != Signature {
		return ErrNoSignature{Got: sig}
	}
	length := data[2]
	if length < LengthOverhead {
		return ErrInvalidLength{Length: length}
	}
	payloadEnd := HeaderSize + int(length) - LengthOverhead
	total := payloadEnd + ChecksumSize
	if len(data) < total {
		df.SetTruncated()
		return ErrNeedMoreData
	}

	f.BaseLayer = layers.BaseLayer{
		Contents: data[0:HeaderSize],
		Payload:  data[HeaderSize:payloadEnd],
	}
	f.Signature = sig
	f.Length = length
	f.Checksum = binary.BigEndian.Uint16(data[payloadEnd:total])
	f.Sum = Checksum(data[0:payloadEnd])
	f.ChecksumValid = f.Sum == uint32(f.Checksum)
	f.raw = data[0:total]
	return nil
}

// SerializeTo prepends the header and appends the checksum to the payload
// already in the buffer. FixLengths sets the length byte, ComputeChecksums
// sets the checksum.
func (f *FrameLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	payloadLen := len(b.Bytes())
	if payloadLen > MaxPayloadSize {
		return ErrEncoding{What: fmt.Sprintf("payload of %d bytes exceeds %d", payloadLen, MaxPayloadSize)}
	}
	if f.Signature == 0 {
		f.Signature = Signature
	}
	if opts.FixLengths {
		f.Length = uint8(payloadLen + LengthOverhead)
	}

	header, err := b.PrependBytes(HeaderSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(header[0:2], f.Signature)
	header[2] = f.Length

	if opts.ComputeChecksums {
		f.Sum = Checksum(b.Bytes())
		if f.Sum > 0xffff {
			return ErrEncoding{What: fmt.Sprintf("checksum 0x%x does not fit 16 bits", f.Sum)}
		}
		f.Checksum = uint16(f.Sum)
		f.ChecksumValid = true
	}

	tail, err := b.AppendBytes(ChecksumSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(tail, f.Checksum)
	return nil
}

func decodeFrameLayer(data []byte, p gopacket.PacketBuilder) error {
	f := &FrameLayer{}
	err := f.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(f)
	tag, ok := f.Tag()
	if !ok {
		return nil
	}
	return p.NextDecoder(tag)
}

// Checksum returns the plain sum of data.
func Checksum(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}

// EncodeCommand wraps payload into a frame ready to be written to the wire.
func EncodeCommand(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrEncoding{What: fmt.Sprintf("payload of %d bytes exceeds %d", len(payload), MaxPayloadSize)}
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, &FrameLayer{}, gopacket.Payload(payload))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame decodes the frame at the head of buf, which must start with the
// signature. It returns the frame and the number of bytes it occupies.
//
// ErrNeedMoreData means the frame is not complete yet. ErrInvalidLength comes
// with consumed = 1 so the caller can drop the false signature and seek again.
// A checksum mismatch is not an error here: see FrameLayer.ChecksumValid.
func DecodeFrame(buf []byte) (*FrameLayer, int, error) {
	probe := &FrameLayer{}
	if err := probe.DecodeFromBytes(buf, gopacket.NilDecodeFeedback); err != nil {
		if errors.As(err, new(ErrInvalidLength)) {
			return nil, 1, err
		}
		return nil, 0, err
	}

	// detach the frame from the caller's buffer
	n := probe.Size()
	data := make([]byte, n)
	copy(data, buf[:n])
	f := &FrameLayer{}
	if err := f.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, 0, err
	}
	return f, n, nil
}

// DecodePacket runs the whole decoder chain over the bytes of one frame:
// frame layer followed by the layer selected by the payload tag.
func DecodePacket(frame []byte) gopacket.Packet {
	return gopacket.NewPacket(frame, FrameLayerType, gopacket.NoCopy)
}
