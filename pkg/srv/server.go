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

package srv

import (
	"context"
	"errors"

	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/device"
	"jinr.ru/greenlab/go-dmm/pkg/log"
	"jinr.ru/greenlab/go-dmm/pkg/store"
)

// Server acquires readings from the meter, stores them and serves them over
// the API.
type Server struct {
	context.Context
	*config.Config
	meter    *device.Meter
	store    *store.ReadingStore
	api      *ApiServer
	recorder *Recorder
}

func NewServer(ctx context.Context, cfg *config.Config, meter *device.Meter, readings *store.ReadingStore) *Server {
	return &Server{
		Context:  ctx,
		Config:   cfg,
		meter:    meter,
		store:    readings,
		api:      NewApiServer(ctx, cfg, meter, readings),
		recorder: NewRecorder(meter, nil, readings),
	}
}

// Run returns when the context is done or either the API server or the
// acquisition fails.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(s.Context)
	defer cancel()
	s.api.Context = ctx

	errChan := make(chan error, 2)
	go func() {
		errChan <- s.api.Run()
	}()
	go func() {
		errChan <- s.meter.Acquire(ctx, 0, s.recorder.Handle)
	}()

	err := <-errChan
	cancel()
	second := <-errChan
	if err == nil || errors.Is(err, context.Canceled) {
		err = second
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("Server stopped after %d readings", s.recorder.Count())
	return err
}
