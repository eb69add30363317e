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

// This binary provides the exonedge HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/profile"
	"github.com/spf13/pflag"

	"github.com/googlegenomics/exonedge/api"
	"github.com/googlegenomics/exonedge/internal/config"
	"github.com/googlegenomics/exonedge/internal/logger"
	"github.com/googlegenomics/exonedge/internal/storage"
)

var (
	configPath = pflag.String("config", "", "configuration file (JSON with comments)")

	// Each of these overrides the configuration key of the same name.
	flagKeys = map[string]string{
		"port":       "server.port",
		"secure":     "server.secure",
		"https_cert": "server.https_cert",
		"https_key":  "server.https_key",
		"buckets":    "server.buckets",
		"profile":    "server.profile",
		"track_root": "storage.track_root",
		"log_level":  "log.level",
	}
)

func init() {
	pflag.Int("port", 8080, "HTTP service port")
	pflag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	pflag.String("https_cert", "", "HTTPS certificate file")
	pflag.String("https_key", "", "HTTPS key file")
	pflag.StringSlice("buckets", nil, "if set, restricts track reads to a comma-separated list of buckets")
	pflag.String("profile", "", "write a cpu or mem profile on exit")
	pflag.String("track_root", "", "if set, serves local tracks under this directory")
	pflag.String("log_level", "info", "log level (debug, info, warn, error)")
}

func main() {
	pflag.Parse()

	loader := config.NewLoader()
	for name, key := range flagKeys {
		if err := loader.BindFlag(key, pflag.Lookup(name)); err != nil {
			log.Fatalf("Failed to bind flag %s: %v", name, err)
		}
	}
	cfg, err := loader.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logger.New(cfg.Log)
	slog.SetDefault(logger)

	switch cfg.Server.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	default:
		log.Fatalf("Unknown profile %q, want cpu or mem", cfg.Server.Profile)
	}

	if cfg.Server.Secure && (cfg.Server.HTTPSCert == "" || cfg.Server.HTTPSKey == "") {
		log.Fatalf("You must specify both --https_cert and --https_key in secure mode.")
	}

	newStorageClient := storage.NewClientFunc(storage.NewClientFromBearerToken)
	if !cfg.Server.Secure {
		public, err := storage.NewPublicGCSClient(context.Background())
		if err != nil {
			log.Fatalf("Failed to create storage client: %v", err)
		}
		newStorageClient = storage.Static(public)
	}

	opener, err := cfg.Storage.Opener()
	if err != nil {
		log.Fatalf("Failed to configure track storage: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	server := api.NewServer(cfg.Snaptron.Client(), api.StorageTracks(opener, newStorageClient), logger)
	server.AllowBuckets(cfg.Server.Buckets)
	server.Export(router)

	address := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("serving", "address", address, "secure", cfg.Server.Secure, "snaptron", cfg.Snaptron.URL)
	if cfg.Server.Secure {
		if err := http.ListenAndServeTLS(address, cfg.Server.HTTPSCert, cfg.Server.HTTPSKey, router); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := http.ListenAndServe(address, router); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
