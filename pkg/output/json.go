package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/config"
)

// Result represents the JSON output format for a whole run
type Result struct {
	Name       string                      `json:"name,omitempty"`
	Timestamp  string                      `json:"timestamp"`
	Host       string                      `json:"host"`
	AppVersion string                      `json:"app_version"`
	Auth       string                      `json:"auth"`
	Requests   int                         `json:"requests_per_endpoint"`
	Endpoints  []*benchmark.EndpointResult `json:"endpoints"`
}

// ToJSONResult wraps the endpoint results with the run settings
func ToJSONResult(cfg *config.Config, results []*benchmark.EndpointResult) *Result {
	return &Result{
		Name:       cfg.Name,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Host:       cfg.Host,
		AppVersion: cfg.AppVersion,
		Auth:       cfg.Auth,
		Requests:   cfg.Requests,
		Endpoints:  results,
	}
}

// WriteJSON outputs results in JSON format
func WriteJSON(w io.Writer, cfg *config.Config, results []*benchmark.EndpointResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(ToJSONResult(cfg, results)); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}
