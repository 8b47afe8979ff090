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
	"os"

	"jinr.ru/greenlab/go-dmm/pkg/log"
)

// Capture copies every byte read from the wrapped transport into a file. The
// file can be replayed later with the decode command.
type Capture struct {
	Transport
	file *os.File
}

func NewCapture(t Transport, filename string) (*Capture, error) {
	file, err := os.Create(filename)
	if err != nil {
		log.Error("Error while creating capture file: %s", filename)
		return nil, err
	}
	return &Capture{
		Transport: t,
		file:      file,
	}, nil
}

func (c *Capture) Read(p []byte) (int, error) {
	n, err := c.Transport.Read(p)
	if n > 0 {
		if _, werr := c.file.Write(p[:n]); werr != nil {
			log.Error("Error while writing capture: %s", werr)
		}
	}
	return n, err
}

// Close flushes the capture file and closes the wrapped transport. The first
// error wins.
func (c *Capture) Close() error {
	err := c.file.Sync()
	if cerr := c.file.Close(); err == nil {
		err = cerr
	}
	if terr := c.Transport.Close(); err == nil {
		err = terr
	}
	return err
}
