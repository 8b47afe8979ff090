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
)

// ErrNeedMoreData is returned while a frame is incomplete. It is a signal to
// wait for more input, not a failure.
var ErrNeedMoreData = errors.New("need more data")

// ErrNoSignature returned when a buffer handed to the frame decoder does not start with the signature
type ErrNoSignature struct {
	Got uint16
}

func (e ErrNoSignature) Error() string {
	return fmt.Sprintf("Frame does not start with signature 0x%04x: got 0x%04x", Signature, e.Got)
}

// ErrInvalidLength returned when the length byte is smaller than the length overhead
type ErrInvalidLength struct {
	Length uint8
}

func (e ErrInvalidLength) Error() string {
	return fmt.Sprintf("Invalid frame length byte %d: must be at least %d", e.Length, LengthOverhead)
}

// ErrChecksumMismatch describes a frame whose checksum field disagrees with the byte sum
type ErrChecksumMismatch struct {
	Want uint16 // checksum field
	Got  uint32 // computed sum
}

func (e ErrChecksumMismatch) Error() string {
	return fmt.Sprintf("Checksum mismatch: frame carries 0x%04x, computed 0x%04x", e.Want, e.Got)
}

// ErrInvalidIndex returned when a mode or range index is outside the mode table
type ErrInvalidIndex struct {
	Mode  int
	Range int
}

func (e ErrInvalidIndex) Error() string {
	if e.Mode < 0 || e.Mode >= NumModes {
		return fmt.Sprintf("Invalid mode index %d: must be below %d", e.Mode, NumModes)
	}
	return fmt.Sprintf("Invalid range index %d for mode %d (%s): mode has %d ranges",
		e.Range, e.Mode, Modes[e.Mode].Name, len(Modes[e.Mode].Ranges))
}

// ErrUnknownPayloadTag returned for frames whose payload tag has no decoder
type ErrUnknownPayloadTag struct {
	Tag uint8
}

func (e ErrUnknownPayloadTag) Error() string {
	return fmt.Sprintf("Unknown payload tag 0x%02x", e.Tag)
}

// ErrUnknownCommand returned when a command name is not in the command table
type ErrUnknownCommand struct {
	Name string
}

func (e ErrUnknownCommand) Error() string {
	return fmt.Sprintf("Unknown command '%s'", e.Name)
}

// ErrEncoding returned when a frame can not be built
type ErrEncoding struct {
	What string
}

func (e ErrEncoding) Error() string {
	return fmt.Sprintf("Error while encoding frame: %s", e.What)
}

// ErrMalformedIdentification returned when identification bytes are not valid UTF-8
type ErrMalformedIdentification struct {
	Data []byte
}

func (e ErrMalformedIdentification) Error() string {
	return fmt.Sprintf("Malformed identification payload: % x", e.Data)
}

// ErrShortPayload returned when a payload is shorter than its fixed layout
type ErrShortPayload struct {
	What string
	Got  int
	Want int
}

func (e ErrShortPayload) Error() string {
	return fmt.Sprintf("Short %s payload: got %d bytes, want at least %d", e.What, e.Got, e.Want)
}
