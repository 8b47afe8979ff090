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

package client

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dmm/pkg/command"
	"jinr.ru/greenlab/go-dmm/pkg/config"
)

const (
	IPOptionName      = "ip"
	ApiPortOptionName = "api-port"
	LimitOptionName   = "limit"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var ip string
	var apiPort int
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Query a running go-dmm server",
	}
	newClient := func() *command.ApiClient {
		if ip != "" {
			cfg.Api.IP = ip
		}
		if apiPort != 0 {
			cfg.Api.Port = apiPort
		}
		return command.NewApiClient(cfg)
	}
	cmd.AddCommand(NewIDCommand(newClient))
	cmd.AddCommand(NewReadingCommand(newClient))
	cmd.AddCommand(NewReadingsCommand(newClient))
	cmd.AddCommand(NewSendCommand(newClient))
	cmd.PersistentFlags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("Server IP. E.g. %s", config.DefaultApiIP))
	cmd.PersistentFlags().IntVar(&apiPort, ApiPortOptionName, 0, fmt.Sprintf("Server port. E.g. %d", config.DefaultApiPort))
	return cmd
}

func printYAML(w io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func NewIDCommand(newClient func() *command.ApiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the identification of the meter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := newClient().ID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func NewReadingCommand(newClient func() *command.ApiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "reading",
		Short: "Print the last reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reading, err := newClient().Reading()
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), reading)
		},
	}
}

func NewReadingsCommand(newClient func() *command.ApiClient) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "readings [instrument]",
		Short: "Print stored readings, or the instruments that have them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if len(args) == 0 {
				ids, err := c.Instruments()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}
			entries, err := c.Readings(args[0], limit)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVar(&limit, LimitOptionName, 10, "Number of most recent readings, 0 for all")
	return cmd
}

func NewSendCommand(newClient func() *command.ApiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "send <command>",
		Short: "Send a command to the meter through the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().Send(args[0])
		},
	}
}
