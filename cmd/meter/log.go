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

package meter

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dmm/pkg/command"
	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/output"
)

const (
	PeriodOptionName  = "period"
	FormatOptionName  = "format"
	RedactOptionName  = "redact"
	StoreOptionName   = "store"
	CaptureOptionName = "capture"

	periodLayout = "15:04:05"
)

// ErrInvalidPeriod returned when the period is not HH:MM:SS up to 23:59:59
type ErrInvalidPeriod struct {
	Value string
}

func (e ErrInvalidPeriod) Error() string {
	return fmt.Sprintf("Invalid period '%s': must be HH:MM:SS between 00:00:00 and 23:59:59", e.Value)
}

// ParsePeriod parses HH:MM:SS. An empty string means no limit.
func ParsePeriod(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	t, err := time.Parse(periodLayout, value)
	if err != nil {
		return 0, ErrInvalidPeriod{Value: value}
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// ValidateFormat returns an error for unsupported output formats.
func ValidateFormat(format string) error {
	for _, f := range output.Formats {
		if f == format {
			return nil
		}
	}
	return output.ErrUnknownFormat{Format: format}
}

// SignalContext is cancelled on SIGINT and SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func NewLogCommand(cfg *config.Config) *cobra.Command {
	var period, format, capture string
	var redact, store bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record readings from the meter",
		Long: "Record readings from the meter to stdout until the period elapses or the command is interrupted.\n" +
			"Columns of the csv format: No,timestamp,mode,range,value,unit,flags",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := command.LogOptions{
				Format:  cfg.Acquire.Format,
				Redact:  cfg.Acquire.Redact || redact,
				Store:   store,
				Capture: capture,
			}
			if format != "" {
				opts.Format = format
			}
			if err := ValidateFormat(opts.Format); err != nil {
				return err
			}
			d, err := ParsePeriod(period)
			if err != nil {
				return err
			}
			opts.Period = d

			ctx, cancel := SignalContext()
			defer cancel()
			return command.Log(ctx, cfg, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&period, PeriodOptionName, "", "Acquisition period HH:MM:SS, max 23:59:59. Default: until interrupted")
	cmd.Flags().StringVar(&format, FormatOptionName, "", fmt.Sprintf("Output format, one of %v", output.Formats))
	cmd.Flags().BoolVar(&redact, RedactOptionName, false, "Blank the value of overloaded or erroneous readings")
	cmd.Flags().BoolVar(&store, StoreOptionName, false, "Also store readings in the database")
	cmd.Flags().StringVar(&capture, CaptureOptionName, "", "Write the raw bytes received from the meter to this file")
	return cmd
}
