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

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
)

func records() []Record {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)
	return []Record{
		{No: 1, Reading: layers.Reading{Timestamp: ts, Mode: "DC Voltage", Range: "range 1", Value: " 1.234", Unit: "V",
			Flags: layers.ReadingFlags{Auto: true}}},
		{No: 2, Reading: layers.Reading{Timestamp: ts, Mode: "DC Voltage", Range: "range 1", Value: "  OL. ", Unit: "V",
			Flags: layers.ReadingFlags{OL: true, Auto: true}}},
	}
}

func write(t *testing.T, format string, redact bool) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(format, &buf, redact)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records() {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestCSV(t *testing.T) {
	want := "No,timestamp,mode,range,value,unit,flags\n" +
		"1,2024-05-06 07:08:09.123,DC Voltage,range 1,\" 1.234\",V,auto\n" +
		"2,2024-05-06 07:08:09.123,DC Voltage,range 1,\"  OL. \",V,OL auto\n"
	if got := write(t, FormatCSV, false); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
	redacted := write(t, FormatCSV, true)
	if !strings.Contains(redacted, "2,2024-05-06 07:08:09.123,DC Voltage,range 1,,V,OL auto\n") {
		t.Errorf("OL value not redacted:\n%s", redacted)
	}
}

func TestJSON(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(write(t, FormatJSON, false)), "\n")
	if len(lines) != 2 {
		t.Fatalf("%d lines", len(lines))
	}
	var r Record
	if err := json.Unmarshal([]byte(lines[1]), &r); err != nil {
		t.Fatal(err)
	}
	if r.No != 2 || r.Value != "  OL. " || !r.Flags.OL {
		t.Errorf("decoded %+v", r)
	}
}

func TestYAML(t *testing.T) {
	out := write(t, FormatYAML, true)
	docs := strings.Split(out, "---\n")
	if len(docs) != 3 {
		t.Fatalf("%d documents:\n%s", len(docs)-1, out)
	}
	var r Record
	if err := yaml.Unmarshal([]byte(docs[2]), &r); err != nil {
		t.Fatal(err)
	}
	if r.No != 2 || r.Value != "" || r.Mode != "DC Voltage" {
		t.Errorf("decoded %+v", r)
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{}, false)
	var unknown ErrUnknownFormat
	if !errors.As(err, &unknown) || unknown.Format != "xml" {
		t.Fatalf("unexpected error %v", err)
	}
}
