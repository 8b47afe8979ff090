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

package command

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"sync"
	"time"

	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/device"
	"jinr.ru/greenlab/go-dmm/pkg/log"
	"jinr.ru/greenlab/go-dmm/pkg/output"
	"jinr.ru/greenlab/go-dmm/pkg/session"
	"jinr.ru/greenlab/go-dmm/pkg/srv"
	"jinr.ru/greenlab/go-dmm/pkg/store"
	"jinr.ru/greenlab/go-dmm/pkg/transport"
)

// replayTimeout is how long a replay pipe waits for input that never comes.
const replayTimeout = 10 * time.Millisecond

type LogOptions struct {
	// Period limits the acquisition, zero means until cancelled.
	Period time.Duration
	Format string
	Redact bool
	Store  bool
	// Capture is a file receiving the raw bytes read from the meter.
	Capture string
}

// OpenMeter opens the configured serial port. With a capture file set the
// raw traffic is also written there.
func OpenMeter(cfg *config.Config, capture string) (*device.Meter, error) {
	var t transport.Transport
	t, err := transport.Open(cfg.Serial)
	if err != nil {
		return nil, err
	}
	if capture != "" {
		c, err := transport.NewCapture(t, capture)
		if err != nil {
			t.Close()
			return nil, err
		}
		t = c
	}
	return device.NewMeter(t,
		device.WithReadSize(cfg.Acquire.ReadSize),
		device.WithMetrics(true),
	), nil
}

func openStore(cfg *config.Config, enabled bool) (*store.ReadingStore, error) {
	if !enabled {
		return nil, nil
	}
	return store.Open(cfg.DBPath)
}

// Log records readings from the meter to w until the period elapses or ctx
// is cancelled.
func Log(ctx context.Context, cfg *config.Config, w io.Writer, opts LogOptions) error {
	out, err := output.New(opts.Format, w, opts.Redact)
	if err != nil {
		return err
	}
	readings, err := openStore(cfg, opts.Store)
	if err != nil {
		return err
	}
	if readings != nil {
		defer readings.Close()
	}

	meter, err := OpenMeter(cfg, opts.Capture)
	if err != nil {
		return err
	}
	defer meter.Close()

	rec := srv.NewRecorder(meter, out, readings)
	err = meter.Acquire(ctx, opts.Period, rec.Handle)
	log.Info("Recorded %d readings", rec.Count())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Identify asks the meter for its ID.
func Identify(ctx context.Context, cfg *config.Config, timeout time.Duration) (string, error) {
	meter, err := OpenMeter(cfg, "")
	if err != nil {
		return "", err
	}
	defer meter.Close()
	return meter.Identify(ctx, timeout)
}

// Send sends a command followed by confirm.
func Send(ctx context.Context, cfg *config.Config, name string) error {
	meter, err := OpenMeter(cfg, "")
	if err != nil {
		return err
	}
	defer meter.Close()
	return meter.Send(ctx, name)
}

// ErrInvalidCapture returned when a hex capture holds a token that is not hex
type ErrInvalidCapture struct {
	Token string
}

func (e ErrInvalidCapture) Error() string {
	return fmt.Sprintf("Invalid hex capture token '%s'", e.Token)
}

// ParseCapture returns the bytes of a raw capture. A binary capture is
// returned as is. A hex capture is whitespace separated hex text, each token
// may carry a 0x prefix.
func ParseCapture(data []byte, asHex bool) ([]byte, error) {
	if !asHex {
		return data, nil
	}
	var result []byte
	for _, token := range strings.Fields(string(data)) {
		digits := strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
		decoded, err := hex.DecodeString(digits)
		if err != nil || len(digits) == 0 {
			return nil, ErrInvalidCapture{Token: token}
		}
		result = append(result, decoded...)
	}
	return result, nil
}

type DecodeOptions struct {
	Format string
	Redact bool
	// Hex reads the capture as hex text instead of binary.
	Hex bool
}

// Decode replays a raw capture through the protocol stack and writes the
// readings it contains to w. Returns the number of readings.
func Decode(ctx context.Context, r io.Reader, w io.Writer, opts DecodeOptions) (uint64, error) {
	out, err := output.New(opts.Format, w, opts.Redact)
	if err != nil {
		return 0, err
	}
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return 0, err
	}
	data, err := ParseCapture(raw, opts.Hex)
	if err != nil {
		return 0, err
	}

	// play the capture back once the meter has asked for the ID
	pipe := transport.NewPipe(replayTimeout)
	var once sync.Once
	pipe.OnWrite(func([]byte) {
		once.Do(func() {
			pipe.Push(data)
			pipe.CloseInput()
		})
	})
	meter := device.NewMeter(pipe)
	rec := srv.NewRecorder(meter, out, nil)
	err = meter.Acquire(ctx, 0, func(e device.Event) error {
		if e.Kind == session.KindIdentification && e.Err == nil {
			log.Info("Frame %d: %s %s", e.Seq, e.Kind, e.ID)
		}
		return rec.Handle(e)
	})
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return rec.Count(), err
}
