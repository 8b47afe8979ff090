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
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"
)

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ConfigFile)

	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	cfg.Serial.Port = "/dev/ttyACM3"
	cfg.Serial.ReadTimeout = 250 * time.Millisecond
	cfg.Acquire.Redact = true
	if err := cfg.Persist(false); err != nil {
		t.Fatalf("persist: %v", err)
	}

	err := cfg.Persist(false)
	var exists ErrConfigFileExists
	if !errors.As(err, &exists) {
		t.Fatalf("expected ErrConfigFileExists, got %v", err)
	}
	if err := cfg.Persist(true); err != nil {
		t.Fatalf("persist with overwrite: %v", err)
	}

	loaded := NewDefaultConfig()
	loaded.SetPath(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Serial.Port != "/dev/ttyACM3" {
		t.Errorf("serial port = %q", loaded.Serial.Port)
	}
	if loaded.Serial.ReadTimeout != 250*time.Millisecond {
		t.Errorf("read timeout = %s", loaded.Serial.ReadTimeout)
	}
	if !loaded.Acquire.Redact {
		t.Errorf("redact flag lost")
	}
	if loaded.Serial.BaudRate != DefaultBaudRate {
		t.Errorf("baud rate = %d", loaded.Serial.BaudRate)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), "absent"))
	if err := cfg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ApiAddr() != "127.0.0.1:8010" {
		t.Errorf("ApiAddr() = %s", cfg.ApiAddr())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "parity", body: "serial:\n  parity: weird\n", field: "serial.parity"},
		{name: "stop bits", body: "serial:\n  stop_bits: 3\n", field: "serial.stop_bits"},
		{name: "data bits", body: "serial:\n  data_bits: 9\n", field: "serial.data_bits"},
		{name: "zero read timeout", body: "serial:\n  read_timeout: 0s\n", field: "serial.read_timeout"},
		{name: "read size", body: "acquire:\n  read_size: 0\n", field: "acquire.read_size"},
		{name: "api port", body: "api:\n  port: 70000\n", field: "api.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFile)
			if err := ioutil.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			cfg := NewDefaultConfig()
			cfg.SetPath(path)
			err := cfg.Load()
			var invalid ErrInvalidConfig
			if !errors.As(err, &invalid) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if invalid.Field != tt.field {
				t.Errorf("field = %s, want %s", invalid.Field, tt.field)
			}
		})
	}
}
