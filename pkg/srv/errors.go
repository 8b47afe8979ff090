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
	"fmt"
)

// ErrNoReading returned when the meter has not delivered a measurement yet
type ErrNoReading struct{}

func (e ErrNoReading) Error() string {
	return "No reading received yet"
}

// ErrNoIdentification returned when the meter has not identified itself yet
type ErrNoIdentification struct{}

func (e ErrNoIdentification) Error() string {
	return "Instrument has not identified itself yet"
}

// ErrStoreDisabled returned for history requests when no reading store is configured
type ErrStoreDisabled struct{}

func (e ErrStoreDisabled) Error() string {
	return "Reading store is disabled"
}

// ErrInvalidLimit returned when the limit query parameter is not a non-negative integer
type ErrInvalidLimit struct {
	Value string
}

func (e ErrInvalidLimit) Error() string {
	return fmt.Sprintf("Invalid limit '%s': must be a non-negative integer", e.Value)
}
