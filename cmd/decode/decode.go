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

package decode

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dmm/cmd/meter"
	"jinr.ru/greenlab/go-dmm/pkg/command"
	"jinr.ru/greenlab/go-dmm/pkg/log"
	"jinr.ru/greenlab/go-dmm/pkg/output"
)

const (
	FormatOptionName = "format"
	RedactOptionName = "redact"
	HexOptionName    = "hex"
)

func NewCommand() *cobra.Command {
	var format string
	var redact, asHex bool
	cmd := &cobra.Command{
		Use:   "decode <file|->",
		Short: "Decode a raw capture of meter traffic",
		Long:  "Decode a raw capture and print the readings it contains. Use - for stdin.\n" +
			"The capture is binary, as written by log --capture. With --hex it is read as\n" +
			"whitespace separated hex bytes, each optionally prefixed with 0x.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := meter.ValidateFormat(format); err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			n, err := command.Decode(context.Background(), in, cmd.OutOrStdout(), command.DecodeOptions{
				Format: format,
				Redact: redact,
				Hex:    asHex,
			})
			if err != nil {
				return err
			}
			log.Info("Decoded %d readings", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, FormatOptionName, output.FormatCSV, fmt.Sprintf("Output format, one of %v", output.Formats))
	cmd.Flags().BoolVar(&redact, RedactOptionName, false, "Blank the value of overloaded or erroneous readings")
	cmd.Flags().BoolVar(&asHex, HexOptionName, false, "Read the capture as hex text")
	return cmd
}
