package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmolchanov/packvault/internal/flagx"
	"github.com/dmolchanov/packvault/internal/timex"
)

// JsonConfig is the DTO for reading the optional JSON configuration file.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	Account            string         `json:"account"`
	TokenValidity      timex.Duration `json:"token_validity"`
}

// parseJson overlays values from the JSON file named by the -c/-config flags,
// if any. Invalid files panic, matching the server config behavior.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.ServerEndpointAddr = c.ServerEndpointAddr
	config.Account = c.Account
	config.TokenValidity = time.Duration(c.TokenValidity.Duration)
}
