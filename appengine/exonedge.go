package exonedge

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/appengine"
	"google.golang.org/appengine/urlfetch"

	"github.com/googlegenomics/exonedge/api"
	"github.com/googlegenomics/exonedge/internal/config"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/junction"
	"github.com/googlegenomics/exonedge/internal/logger"
	"github.com/googlegenomics/exonedge/internal/snaptron"
	"github.com/googlegenomics/exonedge/internal/storage"
)

func init() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	opener, err := cfg.Storage.Opener()
	if err != nil {
		log.Fatalf("Failed to configure track storage: %v", err)
	}

	junctions := fetchJunctions{
		snaptron.WithBaseURL(cfg.Snaptron.URL),
		snaptron.WithCompilation(cfg.Snaptron.Compilation),
	}
	server := api.NewServer(junctions, api.StorageTracks(opener, storage.NewClientFromBearerToken), logger.New(cfg.Log))
	server.AllowBuckets(cfg.Server.Buckets)
	server.Export(router)

	http.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		router.ServeHTTP(w, req.WithContext(appengine.NewContext(req)))
	})
}

// fetchJunctions queries Snaptron through URL Fetch using the request context.
type fetchJunctions []snaptron.Option

func (opts fetchJunctions) Junctions(ctx context.Context, region genomics.Region) ([]junction.Record, error) {
	client := snaptron.NewClient(append(opts[:len(opts):len(opts)], snaptron.WithHTTPClient(urlfetch.Client(ctx)))...)
	return client.Junctions(ctx, region)
}
