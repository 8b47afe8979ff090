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

package command

import (
	"context"

	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/srv"
)

// StartServer acquires readings and serves them over the API until ctx is
// cancelled.
func StartServer(ctx context.Context, cfg *config.Config) error {
	readings, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer readings.Close()

	meter, err := OpenMeter(cfg, "")
	if err != nil {
		return err
	}
	defer meter.Close()

	return srv.NewServer(ctx, cfg, meter, readings).Run()
}
