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

package config

import "time"

const (
	ConfigDir  = ".go-dmm"
	ConfigFile = "config"
	DBFile     = "readings.db"

	DefaultSerialPort  = "/dev/ttyUSB0"
	DefaultBaudRate    = 9600
	DefaultDataBits    = 8
	DefaultParity      = ParityNone
	DefaultStopBits    = 1
	DefaultReadTimeout = 100 * time.Millisecond

	// DefaultReadSize matches the 63 byte payload of a CP2110 HID report.
	DefaultReadSize = 63
	DefaultFormat   = "csv"

	DefaultApiIP   = "127.0.0.1"
	DefaultApiPort = 8010

	DefaultLogLevel = "info"
)

const (
	ParityNone  = "none"
	ParityOdd   = "odd"
	ParityEven  = "even"
	ParityMark  = "mark"
	ParitySpace = "space"
)
