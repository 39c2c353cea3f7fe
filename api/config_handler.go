package api

import (
	"net/http"

	"github.com/seenimoa/sovwatch/internal/config"
)

// configView is the read-only configuration returned by GET /api/v1/config.
// Credentials are reported through their masked status only.
type configView struct {
	Source struct {
		Kind       string `json:"kind"`
		BaseURL    string `json:"base_url,omitempty"`
		Dir        string `json:"dir,omitempty"`
		Format     string `json:"format"`
		BuildTag   string `json:"build_tag"`
		TimeoutSec int    `json:"timeout_sec"`
		RateLimit  int    `json:"rate_limit"`
		Bucket     string `json:"s3_bucket,omitempty"`
		Prefix     string `json:"s3_prefix,omitempty"`
		Region     string `json:"s3_region,omitempty"`
		Endpoint   string `json:"s3_endpoint,omitempty"`
	} `json:"source"`
	Aggregator config.AggregatorConfig `json:"aggregator"`
	API        struct {
		Addr        string   `json:"addr"`
		CORSOrigins []string `json:"cors_origins"`
	} `json:"api"`
	Logging config.LoggingConfig  `json:"logging"`
	Secrets []config.SecretStatus `json:"secrets"`
}

func newConfigView(cfg *config.Config) configView {
	var v configView
	v.Source.Kind = cfg.Source.Kind
	v.Source.BaseURL = cfg.Source.BaseURL
	v.Source.Dir = cfg.Source.Dir
	v.Source.Format = cfg.Source.Format
	v.Source.BuildTag = cfg.Source.BuildTag
	v.Source.TimeoutSec = cfg.Source.TimeoutSec
	v.Source.RateLimit = cfg.Source.RateLimit
	v.Source.Bucket = cfg.Source.S3.Bucket
	v.Source.Prefix = cfg.Source.S3.Prefix
	v.Source.Region = cfg.Source.S3.Region
	v.Source.Endpoint = cfg.Source.S3.Endpoint
	v.Aggregator = cfg.Aggregator
	v.API.Addr = cfg.API.Addr()
	v.API.CORSOrigins = cfg.API.CORSOrigins
	v.Logging = cfg.Logging
	v.Secrets = config.CheckSecrets(cfg)
	return v
}

// handleGetConfig returns the running configuration with secrets masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration not loaded")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: newConfigView(s.cfg)})
}
