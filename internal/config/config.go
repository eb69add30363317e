// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads exonedge configuration from defaults, an optional
// config file, EXONEDGE_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tailscale/hujson"

	"github.com/googlegenomics/exonedge/internal/logger"
	"github.com/googlegenomics/exonedge/internal/snaptron"
	"github.com/googlegenomics/exonedge/internal/storage"
	"github.com/googlegenomics/exonedge/internal/track"
)

// EnvPrefix is the prefix of environment variables read by Load.  The
// variable for key server.port is EXONEDGE_SERVER_PORT.
const EnvPrefix = "EXONEDGE"

// Config is the complete configuration.
type Config struct {
	Snaptron SnaptronConfig `mapstructure:"snaptron"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      logger.Config  `mapstructure:"log"`
}

// SnaptronConfig selects the junction server.
type SnaptronConfig struct {
	URL         string        `mapstructure:"url"`
	Compilation string        `mapstructure:"compilation"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures exonedge-server.
type ServerConfig struct {
	Port      int      `mapstructure:"port"`
	Secure    bool     `mapstructure:"secure"`
	HTTPSCert string   `mapstructure:"https_cert"`
	HTTPSKey  string   `mapstructure:"https_key"`
	Buckets   []string `mapstructure:"buckets"`

	// Profile is "cpu", "mem" or empty.
	Profile string `mapstructure:"profile"`
}

// StorageConfig configures access to coverage tracks.
type StorageConfig struct {
	// TrackRoot is the directory local track paths are resolved against.
	TrackRoot   string `mapstructure:"track_root"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

var defaults = map[string]any{
	"snaptron.url":          snaptron.DefaultBaseURL,
	"snaptron.compilation":  snaptron.DefaultCompilation,
	"snaptron.timeout":      "60s",
	"server.port":           8080,
	"server.secure":         false,
	"server.https_cert":     "",
	"server.https_key":      "",
	"server.buckets":        []string{},
	"server.profile":        "",
	"storage.track_root":    "",
	"storage.s3_endpoint":   "",
	"storage.s3_access_key": "",
	"storage.s3_secret_key": "",
	"storage.s3_use_ssl":    true,
	"log.level":             "info",
	"log.format":            "text",
}

// Loader accumulates flag bindings before loading.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader with the defaults and environment bound.
func NewLoader() *Loader {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v}
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("binding %s: no such flag", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file at path, if path is not empty, and returns the
// merged configuration.  The file is JSON and may contain comments and
// trailing commas.
func (l *Loader) Load(path string) (Config, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
		l.v.SetConfigType("json")
		if err := l.v.ReadConfig(bytes.NewReader(standardized)); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Load returns the configuration from defaults, the file at path and the
// environment.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// Client returns a Snaptron client for the configured server.
func (c SnaptronConfig) Client() *snaptron.Client {
	return snaptron.NewClient(
		snaptron.WithBaseURL(c.URL),
		snaptron.WithCompilation(c.Compilation),
		snaptron.WithHTTPClient(&http.Client{Timeout: c.Timeout}),
	)
}

// Opener returns a track opener for s3:// tracks, if an S3 endpoint is
// configured, and for local tracks under TrackRoot, if it is set.  gs://
// tracks are left to the caller since their credentials depend on how the
// binary is run.
func (c StorageConfig) Opener() (track.Opener, error) {
	var opener track.Opener
	if c.S3Endpoint != "" {
		s3, err := storage.NewS3Client(storage.S3Config{
			Endpoint:        c.S3Endpoint,
			AccessKeyID:     c.S3AccessKey,
			SecretAccessKey: c.S3SecretKey,
			UseSSL:          c.S3UseSSL,
		})
		if err != nil {
			return track.Opener{}, err
		}
		opener.S3 = s3
	}
	if c.TrackRoot != "" {
		opener.Files = storage.FileClient{Root: c.TrackRoot}
	}
	return opener, nil
}
