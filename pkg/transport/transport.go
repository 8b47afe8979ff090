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

import "fmt"

// Transport is the byte channel to the instrument.
type Transport interface {
	// Read returns up to len(p) bytes. Zero bytes with a nil error means
	// nothing arrived within the read timeout.
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Purge discards unread input and unsent output.
	Purge() error
	Close() error
}

// ErrTransportClosed is returned when the channel can not be used anymore.
// It is the only error that ends an acquisition session.
type ErrTransportClosed struct {
	Op  string
	Err error
}

func (e ErrTransportClosed) Error() string {
	return fmt.Sprintf("Transport closed during %s: %s", e.Op, e.Err)
}

func (e ErrTransportClosed) Unwrap() error {
	return e.Err
}
