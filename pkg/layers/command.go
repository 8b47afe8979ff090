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

import "sort"

const (
	CommandGetID       = "get_ID"
	CommandHold        = "hold"
	CommandBrightness  = "brightness"
	CommandSelect      = "select"
	CommandRangeManual = "range_manual"
	CommandRangeAuto   = "range_auto"
	CommandMinMax      = "minmax"
	CommandExitMinMax  = "exitminmax"
	CommandRel         = "rel"
	CommandDVal        = "d_val"
	CommandQVal        = "q_val"
	CommandRVal        = "r_val"
	CommandExitDQR     = "exit_dqr"
	CommandConfirm     = "confirm"
)

var opcodes = map[string]uint8{
	CommandGetID:       0x58,
	CommandHold:        0x46,
	CommandBrightness:  0x47,
	CommandSelect:      0x48,
	CommandRangeManual: 0x49,
	CommandRangeAuto:   0x4a,
	CommandMinMax:      0x4b,
	CommandExitMinMax:  0x4c,
	CommandRel:         0x4d,
	CommandDVal:        0x4e,
	CommandQVal:        0x4f,
	CommandRVal:        0x51,
	CommandExitDQR:     0x50,
	CommandConfirm:     0x5a,
}

// Opcode returns the opcode of the named command.
func Opcode(name string) (uint8, error) {
	op, ok := opcodes[name]
	if !ok {
		return 0, ErrUnknownCommand{Name: name}
	}
	return op, nil
}

// CommandPayload returns the 2 byte payload of the named command.
func CommandPayload(name string) ([]byte, error) {
	op, err := Opcode(name)
	if err != nil {
		return nil, err
	}
	return []byte{op, 0x00}, nil
}

// BuildCommand returns the complete frame of the named command.
func BuildCommand(name string) ([]byte, error) {
	payload, err := CommandPayload(name)
	if err != nil {
		return nil, err
	}
	return EncodeCommand(payload)
}

// CommandNames returns all command names in sorted order.
func CommandNames() []string {
	names := make([]string, 0, len(opcodes))
	for name := range opcodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandName returns the name of the command with the given opcode.
func CommandName(opcode uint8) (string, bool) {
	for name, op := range opcodes {
		if op == opcode {
			return name, true
		}
	}
	return "", false
}

// NeedsConfirm reports whether the instrument expects a confirm frame after
// the named command.
func NeedsConfirm(name string) bool {
	return name != CommandConfirm
}
