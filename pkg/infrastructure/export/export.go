// Package export writes planning reports to a filesystem directory or an S3 bucket.
package export

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/vsinha/sentinel/pkg/infrastructure/config"
)

const (
	DriverNone = "none"
	DriverFS   = "fs"
	DriverS3   = "s3"
)

// Exporter persists one JSON report under key and returns where it was written
type Exporter interface {
	Export(ctx context.Context, key string, report any) (string, error)
}

// New builds the exporter selected by cfg. The "none" driver returns a nil Exporter.
func New(ctx context.Context, cfg config.ExportConfig) (Exporter, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverNone:
		return nil, nil
	case DriverFS:
		exporter, err := NewFileExporter(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return exporter, nil
	case DriverS3:
		exporter, err := NewS3Exporter(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			Prefix:    cfg.Prefix,
			PathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unknown export driver %q", cfg.Driver)
	}
}

// ReportKey names the report object of a planning run
func ReportKey(runID string) string {
	return "planning-" + runID + ".json"
}

// sanitizeKey rejects keys that could escape the export root
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	return path.Clean(strings.ReplaceAll(key, "\\", "/")), nil
}
