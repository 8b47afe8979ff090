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

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	DataBits    int           `yaml:"data_bits"`
	Parity      string        `yaml:"parity"`
	StopBits    int           `yaml:"stop_bits"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type ApiConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type AcquireConfig struct {
	ReadSize int    `yaml:"read_size"`
	Redact   bool   `yaml:"redact"`
	Format   string `yaml:"format"`
}

type Config struct {
	Serial   *SerialConfig  `yaml:"serial"`
	Api      *ApiConfig     `yaml:"api"`
	Acquire  *AcquireConfig `yaml:"acquire"`
	DBPath   string         `yaml:"db_path"`
	LogLevel string         `yaml:"log_level"`
	filepath string
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

// ApiAddr returns host:port the API server binds to.
func (c *Config) ApiAddr() string {
	return fmt.Sprintf("%s:%d", c.Api.IP, c.Api.Port)
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the current values. A missing file is not
// an error, defaults stay in place.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", c.filepath, err)
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Serial == nil || c.Api == nil || c.Acquire == nil {
		return ErrInvalidConfig{Field: "sections", Value: "missing"}
	}
	s := c.Serial
	if s.BaudRate <= 0 {
		return ErrInvalidConfig{Field: "serial.baud_rate", Value: s.BaudRate}
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return ErrInvalidConfig{Field: "serial.data_bits", Value: s.DataBits}
	}
	switch s.Parity {
	case ParityNone, ParityOdd, ParityEven, ParityMark, ParitySpace:
	default:
		return ErrInvalidConfig{Field: "serial.parity", Value: s.Parity}
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return ErrInvalidConfig{Field: "serial.stop_bits", Value: s.StopBits}
	}
	// a zero timeout makes reads return immediately and the reader spin
	if s.ReadTimeout <= 0 {
		return ErrInvalidConfig{Field: "serial.read_timeout", Value: s.ReadTimeout}
	}
	if c.Acquire.ReadSize <= 0 {
		return ErrInvalidConfig{Field: "acquire.read_size", Value: c.Acquire.ReadSize}
	}
	if c.Api.Port <= 0 || c.Api.Port > 65535 {
		return ErrInvalidConfig{Field: "api.port", Value: c.Api.Port}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return home
}

func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	return filepath.Join(homeDir(), ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		Serial: &SerialConfig{
			Port:        DefaultSerialPort,
			BaudRate:    DefaultBaudRate,
			DataBits:    DefaultDataBits,
			Parity:      DefaultParity,
			StopBits:    DefaultStopBits,
			ReadTimeout: DefaultReadTimeout,
		},
		Api: &ApiConfig{
			IP:   DefaultApiIP,
			Port: DefaultApiPort,
		},
		Acquire: &AcquireConfig{
			ReadSize: DefaultReadSize,
			Format:   DefaultFormat,
		},
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}

func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
