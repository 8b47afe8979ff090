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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
var Formats = []string{FormatCSV, FormatJSON, FormatYAML}

// TimestampLayout is used for the csv timestamp column.
const TimestampLayout = "2006-01-02 15:04:05.000"

var csvHeader = []string{"No", "timestamp", "mode", "range", "value", "unit", "flags"}

// ErrUnknownFormat returned when the output format is not supported
type ErrUnknownFormat struct {
	Format string
}

func (e ErrUnknownFormat) Error() string {
	return fmt.Sprintf("Unknown output format '%s': must be one of %v", e.Format, Formats)
}

// Record is a numbered reading.
type Record struct {
	No uint64 `json:"no"`
	layers.Reading
}

type Writer interface {
	Write(r Record) error
	Flush() error
}

// New returns a writer for the given format. With redact set the value of
// unreliable readings is blanked.
func New(format string, w io.Writer, redact bool) (Writer, error) {
	var out Writer
	switch format {
	case FormatCSV:
		out = &csvWriter{w: csv.NewWriter(w)}
	case FormatJSON:
		out = &jsonWriter{enc: json.NewEncoder(w)}
	case FormatYAML:
		out = &yamlWriter{w: w}
	default:
		return nil, ErrUnknownFormat{Format: format}
	}
	if redact {
		out = &redactor{Writer: out}
	}
	return out, nil
}

type redactor struct {
	Writer
}

func (r *redactor) Write(rec Record) error {
	rec.Reading = rec.Reading.Redacted()
	return r.Writer.Write(rec)
}

type csvWriter struct {
	w             *csv.Writer
	headerWritten bool
}

func (c *csvWriter) Write(r Record) error {
	if !c.headerWritten {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.headerWritten = true
	}
	return c.w.Write([]string{
		strconv.FormatUint(r.No, 10),
		r.Timestamp.Format(TimestampLayout),
		r.Mode,
		r.Range,
		r.Value,
		r.Unit,
		r.Flags.String(),
	})
}

func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(r Record) error {
	return j.enc.Encode(r)
}

func (j *jsonWriter) Flush() error {
	return nil
}

type yamlWriter struct {
	w io.Writer
}

func (y *yamlWriter) Write(r Record) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(y.w, "---\n"); err != nil {
		return err
	}
	_, err = y.w.Write(data)
	return err
}

func (y *yamlWriter) Flush() error {
	return nil
}
