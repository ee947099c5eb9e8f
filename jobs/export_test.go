package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/manage-pm/manage-admin/internal/jobs"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/projects"
	"github.com/manage-pm/manage-admin/internal/session"
	"github.com/manage-pm/manage-admin/internal/testing/apitest"
	"github.com/manage-pm/manage-admin/internal/users"
)

type stubExporter struct {
	blob *httpx.Blob
	err  error
	ids  []int64
}

func (s *stubExporter) Export(ctx context.Context, ids []int64) (*httpx.Blob, error) {
	s.ids = ids
	return s.blob, s.err
}

func TestNewExportTasks(t *testing.T) {
	task, err := NewExportUsersTask(ExportPayload{IDs: []int64{1, 2}, RequestedBy: "admin"})
	require.NoError(t, err)
	require.Equal(t, TaskExportUsers, task.Type())
	var payload ExportPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, []int64{1, 2}, payload.IDs)

	_, err = NewExportProjectsTask(ExportPayload{})
	require.ErrorIs(t, err, ErrEmptySelection)
	_, err = NewExportProjectsTask(ExportPayload{IDs: []int64{0}})
	require.Error(t, err)
}

func TestExportJobWritesServerFile(t *testing.T) {
	api := apitest.New(t)
	client := httpx.NewClient(api.URL, session.NewMemoryStore(apitest.Token("admin")))
	dir := t.TempDir()
	job := NewExportJob(ExportJobConfig{
		Users:    users.NewService(client),
		Projects: projects.NewService(client),
		Dir:      dir,
	})

	task, err := NewExportUsersTask(ExportPayload{IDs: []int64{1, 3}})
	require.NoError(t, err)
	require.NoError(t, job.HandleUsers(context.Background(), task))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasSuffix(entries[0].Name(), "-用户列表.xlsx"), entries[0].Name())
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "1;3;")

	task, err = NewExportProjectsTask(ExportPayload{IDs: []int64{1}})
	require.NoError(t, err)
	require.NoError(t, job.HandleProjects(context.Background(), task))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestExportJobPermanentFailuresSkipRetry(t *testing.T) {
	denied := &stubExporter{err: &httpx.StatusError{StatusCode: http.StatusForbidden}}
	job := NewExportJob(ExportJobConfig{Users: denied, Dir: t.TempDir()})
	task, err := NewExportUsersTask(ExportPayload{IDs: []int64{1}})
	require.NoError(t, err)

	err = job.HandleUsers(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	err = job.HandleUsers(context.Background(), asynq.NewTask(TaskExportUsers, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = job.HandleProjects(context.Background(), asynq.NewTask(TaskExportProjects, []byte(`{"ids":[1]}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExportJobTransientFailureRetries(t *testing.T) {
	down := &stubExporter{err: &httpx.StatusError{StatusCode: http.StatusBadGateway}}
	job := NewExportJob(ExportJobConfig{Users: down, Dir: t.TempDir()})
	task, err := NewExportUsersTask(ExportPayload{IDs: []int64{1}})
	require.NoError(t, err)
	err = job.HandleUsers(context.Background(), task)
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestExportJobRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	exporter := &stubExporter{blob: &httpx.Blob{Data: []byte("abcd"), ContentType: spreadsheetType}}
	dir := t.TempDir()
	job := NewExportJob(ExportJobConfig{Users: exporter, Dir: dir, Metrics: metrics})
	task, err := NewExportUsersTask(ExportPayload{IDs: []int64{4}})
	require.NoError(t, err)
	require.NoError(t, job.HandleUsers(context.Background(), task))
	require.Equal(t, []int64{4}, exporter.ids)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasSuffix(entries[0].Name(), ".xlsx"))

	families, err := reg.Gather()
	require.NoError(t, err)
	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				found[mf.GetName()] += c.GetValue()
			}
		}
	}
	require.Equal(t, 1.0, found["manage_jobs_total"])
	require.Equal(t, 4.0, found["manage_export_bytes_total"])
}

func TestExportFilename(t *testing.T) {
	name := exportFilename("users", &httpx.Blob{Filename: "../../etc/passwd"})
	require.True(t, strings.HasSuffix(name, "-passwd"))
	require.NotContains(t, name, "/")

	name = exportFilename("users", &httpx.Blob{ContentType: "application/octet-stream-unknown"})
	require.True(t, strings.HasSuffix(name, ".bin"))
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "1", Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientEnqueues(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := NewClientWith(fake)
	info, err := client.EnqueueExportProjects(context.Background(), ExportPayload{IDs: []int64{2}})
	require.NoError(t, err)
	require.Equal(t, TaskExportProjects, info.Type)

	_, err = client.EnqueueExportUsers(context.Background(), ExportPayload{})
	require.ErrorIs(t, err, ErrEmptySelection)
	require.Len(t, fake.tasks, 1)
	require.NoError(t, client.Close())
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Retry: 1}}, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats QueueStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 3, stats.Pending)
	require.Equal(t, 1, stats.Retry)

	stats, err := Stats(nil)
	require.NoError(t, err)
	require.Zero(t, stats.Pending)
}

func TestScheduledExports(t *testing.T) {
	regs, err := ScheduledExports("", []int64{1}, nil)
	require.NoError(t, err)
	require.Empty(t, regs)

	regs, err = ScheduledExports("0 6 * * 1", []int64{1, 2}, []int64{3})
	require.NoError(t, err)
	require.Len(t, regs, 2)
	require.Equal(t, TaskExportUsers, regs[0].Task.Type())
	require.Equal(t, TaskExportProjects, regs[1].Task.Type())

	var payload ExportPayload
	require.NoError(t, json.Unmarshal(regs[1].Task.Payload(), &payload))
	require.Equal(t, []int64{3}, payload.IDs)
	require.Equal(t, "schedule", payload.RequestedBy)

	_, err = ScheduledExports("@daily", []int64{0}, nil)
	require.Error(t, err)
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	regs, err := ScheduledExports("not a cron spec", []int64{1}, nil)
	require.NoError(t, err)
	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:1"},
		Cron:      regs,
	})
	require.Error(t, err)
}
