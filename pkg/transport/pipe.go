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

package transport

import (
	"io"
	"sync"
	"time"
)

// Pipe is an in-memory Transport. Bytes pushed by the instrument side are
// returned by Read; bytes written by the host are recorded.
type Pipe struct {
	mu      sync.Mutex
	pending []byte
	written []byte
	eof     bool
	closed  bool
	notify  chan struct{}
	timeout time.Duration
	onWrite func(p []byte)
}

var _ Transport = &Pipe{}

// NewPipe returns a Pipe whose Read waits at most timeout for input.
func NewPipe(timeout time.Duration) *Pipe {
	return &Pipe{
		notify:  make(chan struct{}, 1),
		timeout: timeout,
	}
}

// OnWrite registers a function called with every host write. It is called
// without the pipe lock held, so it may Push a reply.
func (p *Pipe) OnWrite(f func(b []byte)) {
	p.mu.Lock()
	p.onWrite = f
	p.mu.Unlock()
}

// Push queues bytes for Read.
func (p *Pipe) Push(b []byte) {
	p.mu.Lock()
	p.pending = append(p.pending, b...)
	p.mu.Unlock()
	p.wake()
}

// CloseInput makes Read fail with io.EOF once the queued bytes are consumed.
func (p *Pipe) CloseInput() {
	p.mu.Lock()
	p.eof = true
	p.mu.Unlock()
	p.wake()
}

// Written returns a copy of everything the host wrote.
func (p *Pipe) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written...)
}

func (p *Pipe) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pipe) Read(b []byte) (int, error) {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	for {
		p.mu.Lock()
		switch {
		case p.closed:
			p.mu.Unlock()
			return 0, ErrTransportClosed{Op: "read", Err: io.ErrClosedPipe}
		case len(p.pending) > 0:
			n := copy(b, p.pending)
			p.pending = p.pending[n:]
			p.mu.Unlock()
			return n, nil
		case p.eof:
			p.mu.Unlock()
			return 0, ErrTransportClosed{Op: "read", Err: io.EOF}
		}
		p.mu.Unlock()

		select {
		case <-p.notify:
		case <-timer.C:
			return 0, nil
		}
	}
}

func (p *Pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrTransportClosed{Op: "write", Err: io.ErrClosedPipe}
	}
	p.written = append(p.written, b...)
	onWrite := p.onWrite
	p.mu.Unlock()
	if onWrite != nil {
		onWrite(append([]byte(nil), b...))
	}
	return len(b), nil
}

func (p *Pipe) Purge() error {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
	return nil
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wake()
	return nil
}
