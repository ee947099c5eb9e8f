package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/manage-pm/manage-admin/internal/jobs"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
)

const spreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func init() {
	ensureMimeType(".xlsx", spreadsheetType)
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		slog.Default().Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
	}
}

// Exporter downloads a spreadsheet for the selected ids.
type Exporter interface {
	Export(ctx context.Context, ids []int64) (*httpx.Blob, error)
}

// ExportJob writes export payloads into a directory.
type ExportJob struct {
	users    Exporter
	projects Exporter
	dir      string
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// ExportJobConfig collects the dependencies of ExportJob.
type ExportJobConfig struct {
	Users    Exporter
	Projects Exporter
	Dir      string
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewExportJob constructs the export handlers.
func NewExportJob(cfg ExportJobConfig) *ExportJob {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportJob{users: cfg.Users, projects: cfg.Projects, dir: cfg.Dir, logger: logger, metrics: cfg.Metrics}
}

// Handlers lists the task handlers to register on a Worker.
func (j *ExportJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskExportUsers, Handler: j.HandleUsers},
		{Type: TaskExportProjects, Handler: j.HandleProjects},
	}
}

// HandleUsers processes TaskExportUsers.
func (j *ExportJob) HandleUsers(ctx context.Context, t *asynq.Task) error {
	return j.run(ctx, t, "users", j.users)
}

// HandleProjects processes TaskExportProjects.
func (j *ExportJob) HandleProjects(ctx context.Context, t *asynq.Task) error {
	return j.run(ctx, t, "projects", j.projects)
}

func (j *ExportJob) run(ctx context.Context, t *asynq.Task, kind string, exporter Exporter) error {
	tracker := j.metrics.Track("export." + kind)
	payload, err := decodeExport(t)
	if err != nil {
		return tracker.End(err)
	}
	if exporter == nil {
		return tracker.End(fmt.Errorf("jobs: no %s exporter: %w", kind, asynq.SkipRetry))
	}
	blob, err := exporter.Export(ctx, payload.IDs)
	if err != nil {
		if permanent(err) {
			err = fmt.Errorf("jobs: export %s: %w: %w", kind, err, asynq.SkipRetry)
		}
		return tracker.End(err)
	}
	path, err := j.write(kind, blob)
	if err != nil {
		return tracker.End(err)
	}
	j.metrics.AddExportedBytes(kind, len(blob.Data))
	j.logger.Info("export written",
		slog.String("kind", kind),
		slog.Int("records", len(payload.IDs)),
		slog.String("requested_by", payload.RequestedBy),
		slog.String("path", path))
	return tracker.End(nil)
}

// permanent reports failures a retry cannot fix.
func permanent(err error) bool {
	if errors.Is(err, httpx.ErrValidation) {
		return true
	}
	var status *httpx.StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= 400 && status.StatusCode < 500 && status.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func (j *ExportJob) write(kind string, blob *httpx.Blob) (string, error) {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return "", fmt.Errorf("jobs: create export dir: %w", err)
	}
	name := exportFilename(kind, blob)
	tmp, err := os.CreateTemp(j.dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("jobs: create export file: %w", err)
	}
	if _, err := tmp.Write(blob.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("jobs: write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("jobs: close export file: %w", err)
	}
	path := filepath.Join(j.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("jobs: publish export file: %w", err)
	}
	return path, nil
}

// exportFilename prefers the server supplied name and otherwise derives one
// from the content type. Names always get a unique prefix.
func exportFilename(kind string, blob *httpx.Blob) string {
	prefix := kind + "-" + uuid.NewString()[:8]
	if base := filepath.Base(blob.Filename); blob.Filename != "" && base != "." && base != string(filepath.Separator) {
		return prefix + "-" + base
	}
	ext := ".bin"
	if media, _, err := mime.ParseMediaType(blob.ContentType); err == nil {
		if exts, _ := mime.ExtensionsByType(media); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return prefix + strings.ToLower(ext)
}
