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

package session

import (
	"errors"
	"fmt"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/log"
)

type State int

const (
	// StateSeeking means the buffer head is not a signature.
	StateSeeking State = iota
	// StateFramed means the buffer head is a signature and a frame is being collected.
	StateFramed
)

func (s State) String() string {
	switch s {
	case StateSeeking:
		return "SEEKING"
	case StateFramed:
		return "FRAMED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Kind classifies a dispatched frame by its payload tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindIdentification
	KindMeasurement
)

func (k Kind) String() string {
	switch k {
	case KindIdentification:
		return "identification"
	case KindMeasurement:
		return "measurement"
	}
	return "unknown"
}

// DispatchResult describes one frame taken from the stream.
type DispatchResult struct {
	Kind          Kind
	Tag           layers.PayloadTag
	Frame         *layers.FrameLayer
	ChecksumValid bool
	// Measurement is set for successfully decoded measurement frames.
	Measurement *layers.Measurement
	// ID is set for successfully decoded identification frames.
	ID string
	// Err is the payload level error, if any. It concerns this frame only.
	Err error
}

// Batch is everything one Drain call produced.
type Batch struct {
	Results []DispatchResult
	// Discarded counts bytes dropped while seeking a signature.
	Discarded int
	// ImpreciseTiming is set when more than one frame was drained, so the
	// frames share a single time of receipt.
	ImpreciseTiming bool
}

type Option func(*Session)

// WithDiscardHook registers a function called for every byte dropped while
// seeking a signature.
func WithDiscardHook(hook func(b byte)) Option {
	return func(s *Session) {
		s.discardHook = hook
	}
}

// Session turns an unframed byte stream into frames. It is not safe for
// concurrent use.
type Session struct {
	buf         []byte
	off         int
	state       State
	id          string
	hasID       bool
	discardHook func(b byte)
}

func NewSession(opts ...Option) *Session {
	s := &Session{state: StateSeeking}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed appends p to the receive buffer.
func (s *Session) Feed(p []byte) {
	s.compact()
	s.buf = append(s.buf, p...)
}

// Drain extracts every complete frame currently in the buffer.
func (s *Session) Drain() Batch {
	var batch Batch
	for {
		if s.state == StateSeeking {
			n, found := s.seek()
			batch.Discarded += n
			if !found {
				break
			}
			s.state = StateFramed
		}

		frame, consumed, err := layers.DecodeFrame(s.buf[s.off:])
		if err != nil {
			if errors.Is(err, layers.ErrNeedMoreData) {
				break
			}
			// false signature, drop its first byte and seek again
			log.Debug("%s", err)
			s.discard(consumed)
			batch.Discarded += consumed
			s.state = StateSeeking
			continue
		}
		s.off += consumed
		s.state = StateSeeking
		batch.Results = append(batch.Results, s.dispatch(frame))
	}
	batch.ImpreciseTiming = len(batch.Results) > 1
	return batch
}

// seek drops bytes until a signature is at the head. A single trailing
// 0xAB is kept because it may be the first half of a signature.
func (s *Session) seek() (discarded int, found bool) {
	for {
		rest := s.buf[s.off:]
		if len(rest) >= layers.SignatureSize {
			if rest[0] == layers.SignatureBytes[0] && rest[1] == layers.SignatureBytes[1] {
				return discarded, true
			}
		} else if len(rest) == 0 || rest[0] == layers.SignatureBytes[0] {
			return discarded, false
		}
		s.discard(1)
		discarded++
	}
}

func (s *Session) discard(n int) {
	for _, b := range s.buf[s.off : s.off+n] {
		log.Debug("shift 0x%02x", b)
		if s.discardHook != nil {
			s.discardHook(b)
		}
	}
	s.off += n
}

func (s *Session) dispatch(frame *layers.FrameLayer) DispatchResult {
	result := DispatchResult{
		Frame:         frame,
		ChecksumValid: frame.ChecksumValid,
	}
	if !frame.ChecksumValid {
		log.Warning("%s", frame.VerifyChecksum())
	}
	tag, ok := frame.Tag()
	if !ok {
		result.Err = layers.ErrShortPayload{What: "frame", Got: 0, Want: 1}
		return result
	}
	result.Tag = tag

	switch tag {
	case layers.PayloadTagIdentification:
		result.Kind = KindIdentification
		id, err := layers.DecodeIdentification(frame.Payload)
		if err != nil {
			result.Err = err
			return result
		}
		result.ID = id
		s.id = id
		s.hasID = true
	case layers.PayloadTagMeasurement:
		result.Kind = KindMeasurement
		result.Measurement, result.Err = layers.DecodeMeasurement(frame.Payload)
	default:
		result.Kind = KindUnknown
		result.Err = layers.ErrUnknownPayloadTag{Tag: uint8(tag)}
	}
	if log.Enabled(log.DebugLevel) {
		log.Debug("%s %s", result.Kind, frame)
	}
	return result
}

// compact moves unread bytes to the front once the consumed prefix is more
// than half of the buffer.
func (s *Session) compact() {
	if s.off == 0 || s.off*2 < len(s.buf) {
		return
	}
	n := copy(s.buf, s.buf[s.off:])
	s.buf = s.buf[:n]
	s.off = 0
}

func (s *Session) State() State {
	return s.state
}

// ID returns the most recent instrument identification.
func (s *Session) ID() (string, bool) {
	return s.id, s.hasID
}

// Buffered returns the number of bytes waiting to be drained.
func (s *Session) Buffered() int {
	return len(s.buf) - s.off
}

// Reset drops buffered bytes and the identification.
func (s *Session) Reset() {
	s.buf = s.buf[:0]
	s.off = 0
	s.state = StateSeeking
	s.id = ""
	s.hasID = false
}
