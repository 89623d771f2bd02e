package preflight

import (
	"context"
	"path/filepath"

	"photobooth/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Capture directory", cfg.Paths.CaptureDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.ArtifactPath != "" {
		results = append(results, CheckDirectoryAccess("Artifact directory", filepath.Dir(cfg.Paths.ArtifactPath)))
	}

	switch cfg.Upload.Provider {
	case config.ProviderCloudinary:
		results = append(results, CheckEndpoint(ctx, "Cloudinary", cfg.Cloudinary.BaseURL))
	case config.ProviderS3:
		if cfg.S3.Endpoint != "" {
			results = append(results, CheckEndpoint(ctx, "S3 endpoint", cfg.S3.Endpoint))
		}
	}
	results = append(results, CheckEndpoint(ctx, "Mailer", cfg.Mailer.APIURL))
	return results
}
