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
	"bytes"
	"errors"
	"testing"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
)

func frame(t *testing.T, payload []byte) []byte {
	t.Helper()
	data, err := layers.EncodeCommand(payload)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func idFrame(t *testing.T, id string) []byte {
	return frame(t, append([]byte{0x00}, id...))
}

func measurementFrame(t *testing.T, mode int, value string, bits ...int) []byte {
	t.Helper()
	m := &layers.Measurement{ModeIndex: mode, RangeIndex: 1, RawValue: value}
	for _, bit := range bits {
		layers.SetStatusBit(&m.Status.Raw, bit)
	}
	payload, err := layers.EncodeMeasurement(m)
	if err != nil {
		t.Fatal(err)
	}
	return frame(t, payload)
}

func TestResyncGarbagePrefix(t *testing.T) {
	garbage := []byte{0x00, 0x13, 0xcd, 0xab, 0x37, 0xab, 0xab}
	var dropped []byte
	s := NewSession(WithDiscardHook(func(b byte) { dropped = append(dropped, b) }))
	s.Feed(append(append([]byte(nil), garbage...), idFrame(t, "UT8803E")...))

	batch := s.Drain()
	if batch.Discarded != len(garbage) {
		t.Errorf("discarded %d, want %d", batch.Discarded, len(garbage))
	}
	if !bytes.Equal(dropped, garbage) {
		t.Errorf("dropped % x, want % x", dropped, garbage)
	}
	if len(batch.Results) != 1 || batch.Results[0].Kind != KindIdentification {
		t.Fatalf("results %+v", batch.Results)
	}
	if id, ok := s.ID(); !ok || id != "UT8803E" {
		t.Errorf("ID %q %t", id, ok)
	}
	if s.Buffered() != 0 || s.State() != StateSeeking {
		t.Errorf("buffered %d state %s", s.Buffered(), s.State())
	}
}

func TestResyncNoSignature(t *testing.T) {
	s := NewSession()
	s.Feed([]byte{0x01, 0x02, 0x03, 0xab})
	batch := s.Drain()
	if len(batch.Results) != 0 {
		t.Fatalf("unexpected results %+v", batch.Results)
	}
	if batch.Discarded != 3 {
		t.Errorf("discarded %d, want 3", batch.Discarded)
	}
	if s.State() != StateSeeking || s.Buffered() != 1 {
		t.Errorf("state %s buffered %d", s.State(), s.Buffered())
	}

	// the kept 0xab completes a signature with the next chunk
	rest := idFrame(t, "X")[1:]
	s.Feed(rest)
	batch = s.Drain()
	if len(batch.Results) != 1 || batch.Discarded != 0 {
		t.Fatalf("batch %+v", batch)
	}
}

func TestPartialFrame(t *testing.T) {
	data := measurementFrame(t, 1, " 1.234")
	s := NewSession()
	s.Feed(data[:4])
	if batch := s.Drain(); len(batch.Results) != 0 {
		t.Fatal("result from partial frame")
	}
	if s.State() != StateFramed {
		t.Errorf("state %s", s.State())
	}
	for i := 4; i < len(data)-1; i++ {
		s.Feed(data[i : i+1])
		if batch := s.Drain(); len(batch.Results) != 0 {
			t.Fatalf("result after %d bytes", i+1)
		}
	}
	s.Feed(data[len(data)-1:])
	batch := s.Drain()
	if len(batch.Results) != 1 || batch.Results[0].Measurement == nil {
		t.Fatalf("batch %+v", batch)
	}
	if batch.ImpreciseTiming {
		t.Error("single frame flagged imprecise")
	}
}

func TestTwoFramesOneFeed(t *testing.T) {
	s := NewSession()
	s.Feed(append(measurementFrame(t, 1, " 1.234"), measurementFrame(t, 8, "12.05")...))
	batch := s.Drain()
	if len(batch.Results) != 2 {
		t.Fatalf("%d results", len(batch.Results))
	}
	if batch.Results[0].Measurement.ModeIndex != 1 || batch.Results[1].Measurement.ModeIndex != 8 {
		t.Error("results out of order")
	}
	if !batch.ImpreciseTiming {
		t.Error("timing warning missing")
	}
	if again := s.Drain(); again.ImpreciseTiming || len(again.Results) != 0 {
		t.Error("timing warning surfaced twice")
	}
}

func TestIdentificationLatestWins(t *testing.T) {
	s := NewSession()
	s.Feed(idFrame(t, "first"))
	s.Feed(idFrame(t, "second"))
	batch := s.Drain()
	if len(batch.Results) != 2 {
		t.Fatalf("%d results", len(batch.Results))
	}
	if id, _ := s.ID(); id != "second" {
		t.Errorf("ID %q", id)
	}

	s.Feed(frame(t, []byte{0x00, 0xff, 0xfe}))
	batch = s.Drain()
	var malformed layers.ErrMalformedIdentification
	if len(batch.Results) != 1 || !errors.As(batch.Results[0].Err, &malformed) {
		t.Fatalf("batch %+v", batch)
	}
	if id, _ := s.ID(); id != "second" {
		t.Errorf("ID changed to %q", id)
	}
}

func TestPerFrameErrorsDoNotStop(t *testing.T) {
	var stream []byte
	stream = append(stream, frame(t, []byte{0x07, 0x01})...)
	stream = append(stream, measurementFrame(t, 1, "1")...)
	stream[len(stream)-1] ^= 0x01
	bad := measurementFrame(t, 1, "1")
	bad[4] = 23
	bad[len(bad)-2], bad[len(bad)-1] = 0, 0
	sum := layers.Checksum(bad[:len(bad)-2])
	bad[len(bad)-2], bad[len(bad)-1] = byte(sum>>8), byte(sum)
	stream = append(stream, bad...)
	stream = append(stream, 0xab, 0xcd, 0x01)
	stream = append(stream, idFrame(t, "ok")...)

	s := NewSession()
	s.Feed(stream)
	batch := s.Drain()
	if len(batch.Results) != 4 {
		t.Fatalf("%d results: %+v", len(batch.Results), batch.Results)
	}
	r := batch.Results
	if r[0].Kind != KindUnknown || !errors.As(r[0].Err, new(layers.ErrUnknownPayloadTag)) || r[0].Tag != 0x07 {
		t.Errorf("unknown tag result %+v", r[0])
	}
	if r[1].Kind != KindMeasurement || r[1].ChecksumValid || r[1].Measurement == nil {
		t.Errorf("corrupted frame result %+v", r[1])
	}
	if r[2].Kind != KindMeasurement || !errors.As(r[2].Err, new(layers.ErrInvalidIndex)) {
		t.Errorf("invalid index result %+v", r[2])
	}
	if r[3].Kind != KindIdentification || r[3].ID != "ok" {
		t.Errorf("identification result %+v", r[3])
	}
	// invalid length: the signature bytes are dropped while resyncing
	if batch.Discarded != 3 {
		t.Errorf("discarded %d, want 3", batch.Discarded)
	}
}

func TestCompactAndReset(t *testing.T) {
	s := NewSession()
	data := measurementFrame(t, 1, "1")
	for i := 0; i < 100; i++ {
		s.Feed(data)
		if batch := s.Drain(); len(batch.Results) != 1 {
			t.Fatalf("iteration %d: %d results", i, len(batch.Results))
		}
	}
	if cap(s.buf) > 4*len(data) {
		t.Errorf("buffer grew to %d", cap(s.buf))
	}
	s.Feed(idFrame(t, "x")[:3])
	s.Reset()
	if s.Buffered() != 0 || s.State() != StateSeeking {
		t.Error("reset left state behind")
	}
	if _, ok := s.ID(); ok {
		t.Error("reset kept ID")
	}
}
