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
	"fmt"

	"go.bug.st/serial"

	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/log"
)

var parities = map[string]serial.Parity{
	config.ParityNone:  serial.NoParity,
	config.ParityOdd:   serial.OddParity,
	config.ParityEven:  serial.EvenParity,
	config.ParityMark:  serial.MarkParity,
	config.ParitySpace: serial.SpaceParity,
}

var stopBits = map[int]serial.StopBits{
	1: serial.OneStopBit,
	2: serial.TwoStopBits,
}

// Serial is a Transport over a serial port. The meter's USB bridge exposes
// one with a fixed 9600 8N1 profile and no flow control.
type Serial struct {
	name string
	port serial.Port
}

var _ Transport = &Serial{}

// Mode converts the serial section of the config into a port mode.
func Mode(cfg *config.SerialConfig) (*serial.Mode, error) {
	parity, ok := parities[cfg.Parity]
	if !ok {
		return nil, config.ErrInvalidConfig{Field: "serial.parity", Value: cfg.Parity}
	}
	stop, ok := stopBits[cfg.StopBits]
	if !ok {
		return nil, config.ErrInvalidConfig{Field: "serial.stop_bits", Value: cfg.StopBits}
	}
	if cfg.ReadTimeout <= 0 {
		return nil, config.ErrInvalidConfig{Field: "serial.read_timeout", Value: cfg.ReadTimeout}
	}
	return &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: stop,
	}, nil
}

func Open(cfg *config.SerialConfig) (*Serial, error) {
	mode, err := Mode(cfg)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}
	log.Info("Opened %s: %d baud, %d%s%d", cfg.Port, cfg.BaudRate, cfg.DataBits, cfg.Parity[:1], cfg.StopBits)
	return &Serial{name: cfg.Port, port: port}, nil
}

func (s *Serial) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, ErrTransportClosed{Op: "read", Err: err}
	}
	return n, nil
}

func (s *Serial) Write(p []byte) (int, error) {
	log.Debug("%s <- % x", s.name, p)
	n, err := s.port.Write(p)
	if err != nil {
		return n, ErrTransportClosed{Op: "write", Err: err}
	}
	return n, nil
}

func (s *Serial) Purge() error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return err
	}
	return s.port.ResetOutputBuffer()
}

func (s *Serial) Close() error {
	log.Debug("Closing %s", s.name)
	return s.port.Close()
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
