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

package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dmm/cmd/meter"
	"jinr.ru/greenlab/go-dmm/pkg/command"
	"jinr.ru/greenlab/go-dmm/pkg/config"
)

const (
	IPOptionName      = "ip"
	ApiPortOptionName = "api-port"
	DBOptionName      = "db"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var ip, db string
	var apiPort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Acquire readings continuously and serve them over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ip != "" {
				cfg.Api.IP = ip
			}
			if apiPort != 0 {
				cfg.Api.Port = apiPort
			}
			if db != "" {
				cfg.DBPath = db
			}
			ctx, cancel := meter.SignalContext()
			defer cancel()
			return command.StartServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("IP to bind. E.g. %s", config.DefaultApiIP))
	cmd.Flags().IntVar(&apiPort, ApiPortOptionName, 0, fmt.Sprintf("Port to bind. E.g. %d", config.DefaultApiPort))
	cmd.Flags().StringVar(&db, DBOptionName, "", fmt.Sprintf("Reading database. Default: %s", config.DefaultDBPath()))
	return cmd
}
