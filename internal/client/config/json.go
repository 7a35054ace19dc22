package config

import (
	"encoding/json"
	"os"
	"time"

	"recordkeeper/internal/flagx"
	"recordkeeper/internal/timex"
)

// JsonConfig is the JSON-file DTO for Config. Interval fields use
// timex.Duration so both "15m" and raw nanosecond integers parse.
type JsonConfig struct {
	DatabaseDSN                  string         `json:"database_dsn"`
	LocalDBPath                  string         `json:"local_db_path"`
	DownloadDir                  string         `json:"download_dir"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by the -c/-config flag.
// No flag means no JSON overlay. Unreadable or invalid files panic.
func parseJson(config *Config) {

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

	config.DatabaseDSN = c.DatabaseDSN
	config.LocalDBPath = c.LocalDBPath
	config.DownloadDir = c.DownloadDir
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
