package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/vsinha/sentinel/pkg/infrastructure/config"
)

type sampleReport struct {
	RunID string `json:"run_id"`
	Buys  int    `json:"buys"`
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
		wantErr  bool
	}{
		{"planning-1.json", "planning-1.json", false},
		{"runs/2026/planning-1.json", "runs/2026/planning-1.json", false},
		{"runs//planning.json", "runs/planning.json", false},
		{"", "", true},
		{"../escape.json", "", true},
		{"/abs.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := sanitizeKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFileExporter_WritesJSON(t *testing.T) {
	root := filepath.Join(t.TempDir(), "reports")
	exporter, err := NewFileExporter(root)
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}

	location, err := exporter.Export(context.Background(), "runs/"+ReportKey("abc"), sampleReport{RunID: "abc", Buys: 3})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if location != filepath.Join(root, "runs", "planning-abc.json") {
		t.Errorf("Unexpected location %s", location)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var decoded sampleReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Report is not JSON: %v", err)
	}
	if decoded.RunID != "abc" || decoded.Buys != 3 {
		t.Errorf("Expected report abc/3, got %+v", decoded)
	}
	if _, err := os.Stat(location + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be renamed away")
	}
}

func TestFileExporter_RejectsTraversal(t *testing.T) {
	exporter, _ := NewFileExporter(t.TempDir())
	if _, err := exporter.Export(context.Background(), "../x.json", sampleReport{}); err == nil {
		t.Error("Expected traversal key to be rejected")
	}
}

func TestFileExporter_CancelledContext(t *testing.T) {
	exporter, _ := NewFileExporter(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exporter.Export(ctx, "x.json", sampleReport{}); err == nil {
		t.Error("Expected cancelled context to fail export")
	}
}

// recordingTransport is a fake S3 endpoint that accepts PutObject requests
type recordingTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	rt.mu.Lock()
	rt.requests = append(rt.requests, recordedRequest{
		method:      req.Method,
		path:        req.URL.Path,
		contentType: req.Header.Get("Content-Type"),
		body:        string(body),
	})
	rt.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Etag": {"\"etag123\""}},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func newTestS3Exporter(t *testing.T, rt http.RoundTripper, prefix string) *S3Exporter {
	t.Helper()
	exporter, err := NewS3Exporter(context.Background(), S3Config{
		Bucket:          "reports-bucket",
		Region:          "us-east-1",
		Endpoint:        "http://mock.s3.local",
		Prefix:          prefix,
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewS3Exporter failed: %v", err)
	}
	return exporter
}

func TestS3Exporter_PutsObject(t *testing.T) {
	rt := &recordingTransport{}
	exporter := newTestS3Exporter(t, rt, "sentinel")

	location, err := exporter.Export(context.Background(), ReportKey("run-1"), sampleReport{RunID: "run-1", Buys: 2})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if location != "s3://reports-bucket/sentinel/planning-run-1.json" {
		t.Errorf("Unexpected location %s", location)
	}

	if len(rt.requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(rt.requests))
	}
	req := rt.requests[0]
	if req.method != http.MethodPut {
		t.Errorf("Expected PUT, got %s", req.method)
	}
	if req.path != "/reports-bucket/sentinel/planning-run-1.json" {
		t.Errorf("Unexpected object path %s", req.path)
	}
	if req.contentType != "application/json" {
		t.Errorf("Expected JSON content type, got %s", req.contentType)
	}
	if !strings.Contains(req.body, `"run_id":"run-1"`) {
		t.Errorf("Expected report body to be uploaded, got %q", req.body)
	}
}

func TestS3Exporter_RequiresBucket(t *testing.T) {
	if _, err := NewS3Exporter(context.Background(), S3Config{}); err == nil {
		t.Error("Expected error without bucket")
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	none, err := New(ctx, config.ExportConfig{Driver: "none"})
	if err != nil || none != nil {
		t.Errorf("Expected nil exporter for none driver, got %v (%v)", none, err)
	}

	fs, err := New(ctx, config.ExportConfig{Driver: "fs", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New(fs) failed: %v", err)
	}
	if _, ok := fs.(*FileExporter); !ok {
		t.Errorf("Expected *FileExporter, got %T", fs)
	}

	if _, err := New(ctx, config.ExportConfig{Driver: "s3"}); err == nil {
		t.Error("Expected s3 driver without bucket to fail")
	}
	if _, err := New(ctx, config.ExportConfig{Driver: "ftp"}); err == nil {
		t.Error("Expected unknown driver to fail")
	}
}
