// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package remote implements the client side of the agent REST API used by
// the swssctl commands.
package remote

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ligato/cn-infra/config"
)

// HTTPClient wraps http.Client with configured authorization and url base
type HTTPClient struct {
	// Config for this client
	Config *HTTPClientConfig

	http *http.Client
}

// HTTPClientConfig is configuration for http client
type HTTPClientConfig struct {
	// Host where the agent listens, the local one by default
	Host string `json:"host"`
	// Port on what the agent is listening on
	Port string `json:"port"`
	// Basic authorization for client
	BasicAuth string `json:"basic-auth"`
	// If https or http should be used
	UseHTTPS bool `json:"use-https"`
}

// CreateHTTPClient uses environment variable HTTP_CLIENT_CONFIG or HTTP
// config file to establish connection
func CreateHTTPClient(configFile string) (*HTTPClient, error) {
	if configFile == "" {
		configFile = os.Getenv("HTTP_CLIENT_CONFIG")
	}

	cfg := &HTTPClientConfig{}
	if configFile != "" {
		if err := config.ParseConfigFromYamlFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		// default port of the agent REST plugin
		cfg.Port = "9191"
	}

	return &HTTPClient{
		Config: cfg,
		http: &http.Client{
			Transport: &http.Transport{},
			Timeout:   10 * time.Second,
		},
	}, nil
}

// Helper function to create url from config
func (client *HTTPClient) createURL(cmd string) string {
	// Use either http or https
	url := "http://"
	if client.Config.UseHTTPS {
		url = "https://"
	}

	// Add port as suffix
	url = url + client.Config.Host + ":" + client.Config.Port

	// Append command
	url = url + "/" + cmd
	return url
}

// Get runs a http get request for cmd using correct authentication and
// returns the response body.
func (client *HTTPClient) Get(cmd string) ([]byte, error) {
	req, err := http.NewRequest("GET", client.createURL(cmd), nil)
	if err != nil {
		return nil, err
	}

	if len(client.Config.BasicAuth) > 0 {
		fields := strings.Split(client.Config.BasicAuth, ":")
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid format of basic auth entry '%v' expected 'user:pass'", client.Config.BasicAuth)
		}
		req.SetBasicAuth(fields[0], fields[1])
	}

	resp, err := client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s: %s",
			cmd, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
