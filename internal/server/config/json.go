package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmolchanov/packvault/internal/flagx"
	"github.com/dmolchanov/packvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	ServiceAccount        string         `json:"service_account"`
	OracleAccount         string         `json:"oracle_account"`
	RegistryAccount       string         `json:"registry_account"`
	RegistryBaseURL       string         `json:"registry_base_url"`
	OracleBaseURL         string         `json:"oracle_base_url"`
	RedisAddr             string         `json:"redis_addr"`
	RedisNamespace        string         `json:"redis_namespace"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	AvatarCollection      string         `json:"avatar_collection"`
	AvatarCategories      []string       `json:"avatar_categories"`
	AvatarTemplates       []string       `json:"avatar_templates"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
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

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.ServiceAccount = c.ServiceAccount
	config.OracleAccount = c.OracleAccount
	config.RegistryAccount = c.RegistryAccount
	config.RegistryBaseURL = c.RegistryBaseURL
	config.OracleBaseURL = c.OracleBaseURL
	config.RedisAddr = c.RedisAddr
	config.RedisNamespace = c.RedisNamespace
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.AvatarCollection = c.AvatarCollection
	if c.AvatarCategories != nil {
		config.AvatarCategories = c.AvatarCategories
	}
	if c.AvatarTemplates != nil {
		config.AvatarTemplates = c.AvatarTemplates
	}
}
