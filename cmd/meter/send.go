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
	"strings"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dmm/pkg/command"
	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/layers"
)

// sendable lists the commands a user may send. confirm is sent automatically.
func sendable() []string {
	var names []string
	for _, name := range layers.CommandNames() {
		if name != layers.CommandConfirm {
			names = append(names, name)
		}
	}
	return names
}

func NewSendCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "send <command>",
		Short:     "Send a command to the meter",
		Long:      fmt.Sprintf("Send a command followed by confirm. Commands: %s", strings.Join(sendable(), ", ")),
		ValidArgs: sendable(),
		Args:      cobra.ExactValidArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.Send(context.Background(), cfg, args[0])
		},
	}
	return cmd
}

func NewCommandsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the commands the meter accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range layers.CommandNames() {
				op, _ := layers.Opcode(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s 0x%02x\n", name, op)
			}
			return nil
		},
	}
	return cmd
}
