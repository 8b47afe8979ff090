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

package srv

import (
	"jinr.ru/greenlab/go-dmm/pkg/device"
	deviceifc "jinr.ru/greenlab/go-dmm/pkg/device/ifc"
	"jinr.ru/greenlab/go-dmm/pkg/output"
	"jinr.ru/greenlab/go-dmm/pkg/store"
)

// Recorder consumes acquisition events. Measurements are numbered, written
// to the output (if any) and stored under the current instrument ID (if a
// store is set).
type Recorder struct {
	out   output.Writer
	store *store.ReadingStore
	meter deviceifc.Meter
	no    uint64
}

func NewRecorder(meter deviceifc.Meter, out output.Writer, readings *store.ReadingStore) *Recorder {
	return &Recorder{
		out:   out,
		store: readings,
		meter: meter,
	}
}

// Handle is a device.Meter.Acquire callback.
func (r *Recorder) Handle(e device.Event) error {
	reading, ok := e.Reading()
	if !ok {
		return nil
	}
	r.no++
	if r.out != nil {
		if err := r.out.Write(output.Record{No: r.no, Reading: reading}); err != nil {
			return err
		}
		if err := r.out.Flush(); err != nil {
			return err
		}
	}
	if r.store != nil {
		id, _ := r.meter.ID()
		if _, err := r.store.Put(id, reading); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of recorded measurements.
func (r *Recorder) Count() uint64 {
	return r.no
}
