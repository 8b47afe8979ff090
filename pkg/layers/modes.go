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
	"fmt"
)

// NumModes is the number of measurement functions the instrument reports.
const NumModes = 23

// NumRanges bounds the range index: the record carries it as one ASCII digit.
const NumRanges = 10

// Mode is one row of the mode table. Units and Ranges are parallel and
// addressed by the range index reported in a measurement.
type Mode struct {
	Name   string
	Units  []string
	Ranges []string
}

// Modes is indexed by the mode byte of a measurement record.
//
// Names and units follow the instrument's reverse-engineered mode list, one
// unit per mode. Scale labels per range are not documented, so every mode
// accepts range 0..9 with the mode's unit and a "range N" label. Continuity
// and Diode report no unit. Inductance Q/R, Capacitance D/R, Triode hFE and
// Thyrisor SCR carry their own label as unit.
var Modes = [NumModes]Mode{
	mode("AC Voltage", "V"),
	mode("DC Voltage", "V"),
	mode("AC Current", "µA"),
	mode("AC Current", "mA"),
	mode("AC Current", "A"),
	mode("DC Current", "µA"),
	mode("DC Current", "mA"),
	mode("DC Current", "A"),
	mode("Resistance", "Ohm"),
	mode("Continuity", ""),
	mode("Diode", ""),
	mode("Inductance L", "Inductance L"),
	mode("Inductance Q", "Inductance Q"),
	mode("Inductance R", "Inductance R"),
	mode("Capacitance C", "Capacitance C"),
	mode("Capacitance D", "Capacitance D"),
	mode("Capacitance R", "Capacitance R"),
	mode("Triode hFE", "Triode hFE"),
	mode("Thyrisor SCR", "Thyrisor SCR"),
	mode("Temp", "C"),
	mode("Temp", "F"),
	mode("Freq", "Hz"),
	mode("Duty cycle", "%"),
}

func mode(name, unit string) Mode {
	return Mode{
		Name:   name,
		Units:  repeat(unit, NumRanges),
		Ranges: placeholders(NumRanges),
	}
}

func init() {
	for i := range Modes {
		m := &Modes[i]
		if len(m.Units) == 0 || len(m.Units) != len(m.Ranges) {
			panic(fmt.Sprintf("mode table row %d (%s): %d units, %d ranges", i, m.Name, len(m.Units), len(m.Ranges)))
		}
	}
}

func repeat(label string, n int) []string {
	result := make([]string, n)
	for i := range result {
		result[i] = label
	}
	return result
}

func placeholders(n int) []string {
	result := make([]string, n)
	for i := range result {
		result[i] = fmt.Sprintf("range %d", i)
	}
	return result
}

// Lookup returns the mode name, unit and range label for the given indices.
func Lookup(mode, rng int) (name, unit, rangeLabel string, err error) {
	if mode < 0 || mode >= NumModes {
		return "", "", "", ErrInvalidIndex{Mode: mode, Range: rng}
	}
	m := &Modes[mode]
	if rng < 0 || rng >= len(m.Ranges) {
		return "", "", "", ErrInvalidIndex{Mode: mode, Range: rng}
	}
	return m.Name, m.Units[rng], m.Ranges[rng], nil
}
