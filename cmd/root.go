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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dmm/cmd/client"
	"jinr.ru/greenlab/go-dmm/cmd/completion"
	"jinr.ru/greenlab/go-dmm/cmd/config"
	"jinr.ru/greenlab/go-dmm/cmd/decode"
	"jinr.ru/greenlab/go-dmm/cmd/meter"
	"jinr.ru/greenlab/go-dmm/cmd/serve"
	pkgconfig "jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
	PortOptionName     = "port"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath, port string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:           "go-dmm",
		Short:         "Tool to work with UT8803E bench multimeters",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg.SetPath(configPath)
			}
			if err := cfg.Load(); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if port != "" {
				cfg.Serial.Port = port
			}
			return log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(meter.NewLogCommand(cfg))
	cmd.AddCommand(meter.NewIDCommand(cfg))
	cmd.AddCommand(meter.NewSendCommand(cfg))
	cmd.AddCommand(meter.NewCommandsCommand())
	cmd.AddCommand(meter.NewPortsCommand())
	cmd.AddCommand(decode.NewCommand())
	cmd.AddCommand(serve.NewCommand(cfg))
	cmd.AddCommand(client.NewCommand(cfg))
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, "",
		fmt.Sprintf("Config file. Default: %s", pkgconfig.DefaultConfigPath()))
	cmd.PersistentFlags().StringVar(&port, PortOptionName, "",
		fmt.Sprintf("Serial port of the meter. E.g. %s", pkgconfig.DefaultSerialPort))
	return cmd
}
