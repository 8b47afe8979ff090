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
	"fmt"
	"net/url"
	"strings"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-dmm/pkg/command/ifc"
	"jinr.ru/greenlab/go-dmm/pkg/config"
	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/srv"
	"jinr.ru/greenlab/go-dmm/pkg/store"
)

// ErrApiResponse returned when the API server answers with a non 200 status
type ErrApiResponse struct {
	Status  string
	Code    int
	Message string
}

func (e ErrApiResponse) Error() string {
	return fmt.Sprintf("API request failed: %s: %s", e.Status, e.Message)
}

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s/api", cfg.ApiAddr()),
	}
}

func checkResponse(r *req.Resp) error {
	resp := r.Response()
	if resp.StatusCode != 200 {
		return ErrApiResponse{
			Status:  resp.Status,
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(r.String()),
		}
	}
	return nil
}

func (c *ApiClient) get(path string, v interface{}, params ...interface{}) error {
	r, err := req.Get(c.ApiPrefix+path, params...)
	if err != nil {
		return err
	}
	if err := checkResponse(r); err != nil {
		return err
	}
	return r.ToJSON(v)
}

// ID requests the instrument identification
func (c *ApiClient) ID() (string, error) {
	resp := &srv.IDResp{}
	if err := c.get("/id", resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Reading requests the last reading
func (c *ApiClient) Reading() (*layers.Reading, error) {
	reading := &layers.Reading{}
	if err := c.get("/reading", reading); err != nil {
		return nil, err
	}
	return reading, nil
}

// Instruments requests the IDs that have stored readings
func (c *ApiClient) Instruments() ([]string, error) {
	var ids []string
	if err := c.get("/readings", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Readings requests up to limit stored readings of an instrument
func (c *ApiClient) Readings(id string, limit int) ([]*store.Entry, error) {
	var entries []*store.Entry
	err := c.get("/readings/"+url.PathEscape(id), &entries, req.QueryParam{"limit": limit})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Commands requests the names of the commands the meter accepts
func (c *ApiClient) Commands() ([]string, error) {
	var names []string
	if err := c.get("/commands", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Send asks the server to send a command to the meter
func (c *ApiClient) Send(name string) error {
	r, err := req.Post(fmt.Sprintf("%s/command/%s", c.ApiPrefix, url.PathEscape(name)))
	if err != nil {
		return err
	}
	return checkResponse(r)
}
