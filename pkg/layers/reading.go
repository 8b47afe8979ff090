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
	"strings"
	"time"
)

// ReadingFlags are the status flags a user cares about.
type ReadingFlags struct {
	OL       bool     `json:"ol"`
	Hold     bool     `json:"hold"`
	Rel      bool     `json:"rel"`
	ManRange bool     `json:"manRange"`
	Auto     bool     `json:"auto"`
	Min      bool     `json:"min"`
	Max      bool     `json:"max"`
	Err      bool     `json:"err"`
	Polarity Polarity `json:"polarity,omitempty"`
}

func NewReadingFlags(s StatusFlags) ReadingFlags {
	return ReadingFlags{
		OL:       s.OL,
		Hold:     s.Hold,
		Rel:      s.Rel,
		ManRange: s.ManRange,
		Auto:     s.Auto(),
		Min:      s.Min,
		Max:      s.Max,
		Err:      s.Err,
		Polarity: s.Polarity(),
	}
}

// String lists the set flags separated by spaces, e.g. "OL Hold auto".
func (f ReadingFlags) String() string {
	var parts []string
	add := func(set bool, name string) {
		if set {
			parts = append(parts, name)
		}
	}
	add(f.OL, "OL")
	add(f.Err, "err")
	add(f.Hold, "Hold")
	add(f.Rel, "rel")
	add(f.ManRange, "manrange")
	add(f.Auto, "auto")
	add(f.Max, "max")
	add(f.Min, "min")
	add(f.Polarity != PolarityNone, f.Polarity.String())
	return strings.Join(parts, " ")
}

// Reading is a measurement as presented to the user.
type Reading struct {
	Timestamp time.Time    `json:"timestamp"`
	Mode      string       `json:"mode"`
	Range     string       `json:"range"`
	Value     string       `json:"value"`
	Unit      string       `json:"unit"`
	Flags     ReadingFlags `json:"flags"`
}

// Unreliable reports whether the value text is not a number to trust.
func (r Reading) Unreliable() bool {
	return r.Flags.OL || r.Flags.Err
}

// Redacted returns a copy with the value blanked when it is unreliable.
func (r Reading) Redacted() Reading {
	if r.Unreliable() {
		r.Value = ""
	}
	return r
}
