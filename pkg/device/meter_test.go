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

package device

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/session"
	"jinr.ru/greenlab/go-dmm/pkg/transport"
)

func mustBuild(t *testing.T, name string) []byte {
	t.Helper()
	data, err := layers.BuildCommand(name)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func mustFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	data, err := layers.EncodeCommand(payload)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// instrument answers get_ID with its ID followed by one measurement.
func instrument(t *testing.T, p *transport.Pipe, id string) {
	getID := mustBuild(t, layers.CommandGetID)
	m := &layers.Measurement{ModeIndex: 1, RangeIndex: 1, RawValue: " 1.234"}
	layers.SetStatusBit(&m.Status.Raw, layers.StatusBitOL)
	payload, err := layers.EncodeMeasurement(m)
	if err != nil {
		t.Fatal(err)
	}
	reply := append(mustFrame(t, append([]byte{0x00}, id...)), mustFrame(t, payload)...)
	p.OnWrite(func(b []byte) {
		if bytes.Equal(b, getID) {
			p.Push(reply)
		}
	})
}

var errStop = errors.New("stop")

func TestAcquire(t *testing.T) {
	p := transport.NewPipe(5 * time.Millisecond)
	instrument(t, p, "UT8803E")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewMeter(p, WithClock(func() time.Time { return ts }), WithReadSize(64))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var events []Event
	err := m.Acquire(ctx, 0, func(e Event) error {
		events = append(events, e)
		if len(events) == 2 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("unexpected error %v", err)
	}

	want := append(mustBuild(t, layers.CommandGetID), mustBuild(t, layers.CommandConfirm)...)
	if !bytes.Equal(p.Written(), want) {
		t.Errorf("written % x, want % x", p.Written(), want)
	}
	if events[0].Kind != session.KindIdentification || events[1].Kind != session.KindMeasurement {
		t.Fatalf("events %+v", events)
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Errorf("sequence %d %d", events[0].Seq, events[1].Seq)
	}
	if !events[1].Imprecise || !events[1].Time.Equal(ts) {
		t.Errorf("timing %v %t", events[1].Time, events[1].Imprecise)
	}
	if id, ok := m.ID(); !ok || id != "UT8803E" {
		t.Errorf("ID %q", id)
	}
	r, ok := m.Last()
	if !ok || r.Mode != "DC Voltage" || r.Value != " 1.234" || !r.Flags.OL {
		t.Errorf("last reading %+v", r)
	}
	if er, ok := events[1].Reading(); !ok || er != r {
		t.Errorf("event reading %+v", er)
	}
}

func TestAcquirePeriod(t *testing.T) {
	p := transport.NewPipe(5 * time.Millisecond)
	m := NewMeter(p)
	start := time.Now()
	err := m.Acquire(context.Background(), 30*time.Millisecond, func(Event) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("returned before the period elapsed")
	}
}

func TestAcquireCancel(t *testing.T) {
	p := transport.NewPipe(5 * time.Millisecond)
	m := NewMeter(p)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := m.Acquire(ctx, time.Hour, func(Event) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAcquireTransportClosed(t *testing.T) {
	p := transport.NewPipe(5 * time.Millisecond)
	p.CloseInput()
	m := NewMeter(p)
	err := m.Acquire(context.Background(), 0, func(Event) error { return nil })
	if !errors.As(err, new(transport.ErrTransportClosed)) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestIdentify(t *testing.T) {
	p := transport.NewPipe(5 * time.Millisecond)
	instrument(t, p, "UT8803E")
	m := NewMeter(p)
	id, err := m.Identify(context.Background(), time.Second)
	if err != nil || id != "UT8803E" {
		t.Fatalf("Identify = %q, %v", id, err)
	}

	silent := NewMeter(transport.NewPipe(5 * time.Millisecond))
	_, err = silent.Identify(context.Background(), 20*time.Millisecond)
	if !errors.As(err, new(ErrNoIdentification)) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSend(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{layers.CommandHold, []string{layers.CommandHold, layers.CommandConfirm}},
		{layers.CommandConfirm, []string{layers.CommandConfirm}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := transport.NewPipe(time.Millisecond)
			m := NewMeter(p)
			if err := m.Send(context.Background(), tt.name); err != nil {
				t.Fatal(err)
			}
			var want []byte
			for _, n := range tt.want {
				want = append(want, mustBuild(t, n)...)
			}
			if !bytes.Equal(p.Written(), want) {
				t.Errorf("written % x, want % x", p.Written(), want)
			}
		})
	}

	p := transport.NewPipe(time.Millisecond)
	m := NewMeter(p)
	if err := m.Send(context.Background(), "nope"); !errors.As(err, new(layers.ErrUnknownCommand)) {
		t.Fatalf("unexpected error %v", err)
	}
	if len(p.Written()) != 0 {
		t.Error("bytes written for unknown command")
	}
}
