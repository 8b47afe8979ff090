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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-dmm/pkg/config"
	deviceifc "jinr.ru/greenlab/go-dmm/pkg/device/ifc"
	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/log"
	"jinr.ru/greenlab/go-dmm/pkg/metrics"
	"jinr.ru/greenlab/go-dmm/pkg/session"
	"jinr.ru/greenlab/go-dmm/pkg/transport"
)

// Event is one dispatched frame together with its time of receipt.
type Event struct {
	Seq  uint64
	Time time.Time
	session.DispatchResult
	// Imprecise is set when the frame arrived together with other frames and
	// Time is shared between them.
	Imprecise bool
}

// Reading returns the presentation view of a measurement event.
func (e Event) Reading() (layers.Reading, bool) {
	if e.Kind != session.KindMeasurement || e.Measurement == nil {
		return layers.Reading{}, false
	}
	return e.Measurement.Reading(e.Time), true
}

type Option func(*Meter)

// WithReadSize sets the maximum number of bytes requested per read.
func WithReadSize(n int) Option {
	return func(m *Meter) {
		if n > 0 {
			m.readSize = n
		}
	}
}

// WithClock replaces time.Now as the source of receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) {
		m.now = now
	}
}

// WithMetrics enables prometheus accounting of the stream.
func WithMetrics(enabled bool) Option {
	return func(m *Meter) {
		m.metrics = enabled
	}
}

// chunk is one read handed from the reader goroutine to the parser.
type chunk struct {
	Data []byte
	gopacket.CaptureInfo
}

// Meter drives a multimeter over a transport.
type Meter struct {
	t        transport.Transport
	readSize int
	now      func() time.Time
	metrics  bool

	writeMu sync.Mutex

	mu    sync.RWMutex
	id    string
	hasID bool
	last  layers.Reading
	seen  bool
}

var _ deviceifc.Meter = &Meter{}

func NewMeter(t transport.Transport, opts ...Option) *Meter {
	m := &Meter{
		t:        t,
		readSize: config.DefaultReadSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send writes the named command followed by confirm, which the instrument
// expects after every other command.
func (m *Meter) Send(ctx context.Context, name string) error {
	names := []string{name}
	if layers.NeedsConfirm(name) {
		names = append(names, layers.CommandConfirm)
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := layers.BuildCommand(n)
		if err != nil {
			return err
		}
		log.Debug("Sending %s: % x", n, data)
		if _, err := m.t.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// Acquire reads the stream and calls handle for every frame until ctx is
// done, period elapses (if positive), handle fails or the transport closes.
// Reaching the period is not an error.
func (m *Meter) Acquire(ctx context.Context, period time.Duration, handle func(Event) error) error {
	if err := m.t.Purge(); err != nil {
		return fmt.Errorf("failed to purge transport: %w", err)
	}
	if err := m.Send(ctx, layers.CommandGetID); err != nil {
		return err
	}

	runCtx := ctx
	if period > 0 {
		var cancelPeriod context.CancelFunc
		runCtx, cancelPeriod = context.WithTimeout(ctx, period)
		defer cancelPeriod()
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	readCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	chunks := make(chan chunk, 16)
	errCh := make(chan error, 1)

	// receive data from the wire and hand them to the parser
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if readCtx.Err() != nil {
				return
			}
			buffer := make([]byte, m.readSize)
			n, err := m.t.Read(buffer)
			if err != nil {
				errCh <- err
				return
			}
			if n == 0 {
				continue
			}
			c := chunk{
				Data: buffer[:n],
				CaptureInfo: gopacket.CaptureInfo{
					Timestamp:     m.now(),
					CaptureLength: n,
					Length:        n,
				},
			}
			select {
			case chunks <- c:
			case <-readCtx.Done():
				return
			}
		}
	}()

	s := session.NewSession()
	var seq uint64
	process := func(c chunk) error {
		if m.metrics {
			metrics.AddBytesRead(c.Length)
		}
		s.Feed(c.Data)
		batch := s.Drain()
		if m.metrics {
			metrics.Observe(batch)
		}
		if batch.ImpreciseTiming {
			log.Warning("%d frames in one read, timestamps are approximate", len(batch.Results))
		}
		for _, r := range batch.Results {
			seq++
			e := Event{
				Seq:            seq,
				Time:           c.Timestamp,
				DispatchResult: r,
				Imprecise:      batch.ImpreciseTiming,
			}
			m.publish(e)
			if err := handle(e); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		select {
		case <-runCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Info("Acquisition period %s elapsed", period)
			return nil
		case err := <-errCh:
			// the reader has stopped, parse what it delivered before failing
			for {
				select {
				case c := <-chunks:
					if herr := process(c); herr != nil {
						return herr
					}
				default:
					return err
				}
			}
		case c := <-chunks:
			if err := process(c); err != nil {
				return err
			}
		}
	}
}

func (m *Meter) publish(e Event) {
	if e.Err != nil {
		log.Warning("Frame %d: %s", e.Seq, e.Err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch e.Kind {
	case session.KindIdentification:
		if e.ID != m.id {
			log.Info("Instrument ID: %s", e.ID)
		}
		m.id = e.ID
		m.hasID = true
	case session.KindMeasurement:
		m.last = e.Measurement.Reading(e.Time)
		m.seen = true
	}
}

var errIdentified = errors.New("identified")

// ErrNoIdentification returned when the instrument did not identify itself in time
type ErrNoIdentification struct {
	Timeout time.Duration
}

func (e ErrNoIdentification) Error() string {
	return fmt.Sprintf("No identification received within %s", e.Timeout)
}

// Identify requests the instrument ID and waits for it.
func (m *Meter) Identify(ctx context.Context, timeout time.Duration) (string, error) {
	var id string
	err := m.Acquire(ctx, timeout, func(e Event) error {
		if e.Kind == session.KindIdentification && e.Err == nil {
			id = e.ID
			return errIdentified
		}
		return nil
	})
	if errors.Is(err, errIdentified) {
		return id, nil
	}
	if err != nil {
		return "", err
	}
	return "", ErrNoIdentification{Timeout: timeout}
}

// ID returns the last identification seen by Acquire.
func (m *Meter) ID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id, m.hasID
}

// Last returns the last reading seen by Acquire.
func (m *Meter) Last() (layers.Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.seen
}

func (m *Meter) Close() error {
	return m.t.Close()
}
