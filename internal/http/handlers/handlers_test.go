package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/shape-crop/internal/config"
	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/phambaophuc/shape-crop/internal/services/capture"
	"github.com/phambaophuc/shape-crop/internal/services/processor"
	"github.com/phambaophuc/shape-crop/internal/services/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	jobs []*models.CaptureJob
	err  error
}

func (f *fakePublisher) PublishJob(ctx context.Context, job *models.CaptureJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeJobs map[string]*models.CaptureJob

func (f fakeJobs) GetJobStatus(ctx context.Context, id string) (*models.CaptureJob, error) {
	return f[id], nil
}

type fakeMedia struct {
	entries []models.MediaEntry
	removed []string
	err     error
}

func (f *fakeMedia) RemoveMedia(ctx context.Context, filename string) error {
	f.removed = append(f.removed, filename)
	return f.err
}

func (f *fakeMedia) ListMedia(ctx context.Context, limit int) ([]models.MediaEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[:min(limit, len(f.entries))], nil
}

type fakeMirror struct {
	deleted []string
}

func (f *fakeMirror) Delete(ctx context.Context, filename string) error {
	f.deleted = append(f.deleted, filename)
	return nil
}

type fakeQueueStatus string

func (f fakeQueueStatus) HealthCheck() string { return string(f) }

func (f fakeQueueStatus) GetQueueStats(ctx context.Context) (map[string]interface{}, error) {
	if f != "healthy" {
		return nil, errors.New("channel closed")
	}
	return map[string]interface{}{"messages": 3, "consumers": 2}, nil
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			MaxFileSize:  1 << 20,
			AllowedTypes: []string{"image/jpeg", "image/png"},
		},
		Pipeline: config.PipelineConfig{DefaultRotation: 90},
	}
}

func newTestDeps(t *testing.T) Dependencies {
	t.Helper()
	mask, err := processor.ParsePathData(config.DefaultMaskPathData)
	require.NoError(t, err)
	proc, err := processor.NewImageProcessor(mask)
	require.NoError(t, err)
	pictures, err := storage.NewPictureStore(t.TempDir(), "KTP")
	require.NoError(t, err)

	return Dependencies{
		Captures:  capture.NewService(proc, pictures, zap.NewNop(), capture.Options{}),
		Validator: proc,
		Pictures:  pictures,
	}
}

func newTestRouter(deps Dependencies) *gin.Engine {
	h := NewImageHandler(deps, zap.NewNop(), testConfig())
	r := gin.New()
	r.POST("/captures", h.Capture)
	r.POST("/captures/async", h.CaptureAsync)
	r.GET("/captures/jobs/:id", h.GetJob)
	r.GET("/gallery", h.ListGallery)
	r.GET("/gallery/:filename", h.GetPicture)
	r.DELETE("/gallery/:filename", h.DeletePicture)
	r.GET("/stats", h.GetStats)
	r.GET("/health", h.HealthCheck)
	return r
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path string, data []byte, rotation string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		part, err := w.CreateFormFile(imageParamKey, "capture.jpg")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	if rotation != "" {
		require.NoError(t, w.WriteField(rotationParamKey, rotation))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp response
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestCaptureCreatesPicture(t *testing.T) {
	deps := newTestDeps(t)
	r := newTestRouter(deps)

	rec, resp := serve(t, r, uploadRequest(t, "/captures", jpegBytes(t, 60, 40), ""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, resp.Success)

	var result models.CaptureResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.Equal(t, 90, result.Rotation)
	require.Equal(t, 40, result.Width)
	require.Equal(t, 60, result.Height)

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	require.Equal(t, result.FileSize, info.Size())
}

func TestCaptureRejectsBadInput(t *testing.T) {
	corrupt := append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("truncated")...)

	tests := []struct {
		name     string
		data     []byte
		rotation string
		status   int
	}{
		{"missing image", nil, "90", http.StatusBadRequest},
		{"rotation not a number", jpegBytes(t, 8, 8), "left", http.StatusBadRequest},
		{"rotation off axis", jpegBytes(t, 8, 8), "45", http.StatusBadRequest},
		{"not an image", []byte("hello world"), "90", http.StatusUnsupportedMediaType},
		{"corrupt jpeg", corrupt, "90", http.StatusBadRequest},
		{"too large", make([]byte, 3<<19), "90", http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			r := newTestRouter(deps)

			rec, resp := serve(t, r, uploadRequest(t, "/captures", tt.data, tt.rotation))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.False(t, resp.Success)
			require.NotEmpty(t, resp.Error)

			entries, err := os.ReadDir(deps.Pictures.Dir())
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestCaptureAsync(t *testing.T) {
	deps := newTestDeps(t)
	r := newTestRouter(deps)

	rec, _ := serve(t, r, uploadRequest(t, "/captures/async", jpegBytes(t, 8, 8), "180"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	publisher := &fakePublisher{}
	deps.Publisher = publisher
	r = newTestRouter(deps)

	rec, resp := serve(t, r, uploadRequest(t, "/captures/async", jpegBytes(t, 8, 8), "180"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, publisher.jobs, 1)
	require.Equal(t, publisher.jobs[0].ID, data["job_id"])
	require.Equal(t, models.StatusPending, data["status"])
	require.Equal(t, 180, publisher.jobs[0].Rotation)
	require.NotEmpty(t, publisher.jobs[0].Image)

	deps.Publisher = &fakePublisher{err: errors.New("channel closed")}
	r = newTestRouter(deps)
	rec, _ = serve(t, r, uploadRequest(t, "/captures/async", jpegBytes(t, 8, 8), "180"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetJob(t *testing.T) {
	deps := newTestDeps(t)
	r := newTestRouter(deps)

	rec, _ := serve(t, r, httptest.NewRequest(http.MethodGet, "/captures/jobs/abc", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	deps.Jobs = fakeJobs{"abc": {ID: "abc", Status: models.StatusCompleted}}
	r = newTestRouter(deps)

	rec, resp := serve(t, r, httptest.NewRequest(http.MethodGet, "/captures/jobs/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var job models.CaptureJob
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	require.Equal(t, models.StatusCompleted, job.Status)

	rec, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/captures/jobs/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGallery(t *testing.T) {
	deps := newTestDeps(t)
	_, err := deps.Captures.Capture(context.Background(), jpegBytes(t, 16, 16), 0)
	require.NoError(t, err)

	deps.Media = &fakeMedia{err: errors.New("redis down")}
	r := newTestRouter(deps)

	rec, resp := serve(t, r, httptest.NewRequest(http.MethodGet, "/gallery", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.MediaEntry
	require.NoError(t, json.Unmarshal(resp.Data, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "image/jpeg", entries[0].MimeType)

	deps.Media = &fakeMedia{entries: []models.MediaEntry{{Filename: "KTP2.jpg"}, {Filename: "KTP1.jpg"}}}
	r = newTestRouter(deps)

	rec, resp = serve(t, r, httptest.NewRequest(http.MethodGet, "/gallery?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	entries = nil
	require.NoError(t, json.Unmarshal(resp.Data, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "KTP2.jpg", entries[0].Filename)
}

func TestGetPicture(t *testing.T) {
	deps := newTestDeps(t)
	result, err := deps.Captures.Capture(context.Background(), jpegBytes(t, 16, 16), 90)
	require.NoError(t, err)
	r := newTestRouter(deps)

	rec, _ := serve(t, r, httptest.NewRequest(http.MethodGet, "/gallery/"+result.Filename, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	want, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	require.Equal(t, want, rec.Body.Bytes())

	rec, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/gallery/KTP0.jpg", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/gallery/other.jpg", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	deps := newTestDeps(t)
	r := newTestRouter(deps)

	rec, resp := serve(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	var health models.HealthCheck
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, "not configured", health.Services["rabbitmq"])

	deps.QueueStatus = fakeQueueStatus("unhealthy")
	r = newTestRouter(deps)
	rec, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeletePicture(t *testing.T) {
	deps := newTestDeps(t)
	result, err := deps.Captures.Capture(context.Background(), jpegBytes(t, 16, 16), 90)
	require.NoError(t, err)

	media := &fakeMedia{}
	mirror := &fakeMirror{}
	deps.Media = media
	deps.Mirror = mirror
	r := newTestRouter(deps)

	rec, _ := serve(t, r, httptest.NewRequest(http.MethodDelete, "/gallery/"+result.Filename, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoFileExists(t, result.Path)
	require.Equal(t, []string{result.Filename}, media.removed)
	require.Equal(t, []string{result.Filename}, mirror.deleted)

	rec, _ = serve(t, r, httptest.NewRequest(http.MethodDelete, "/gallery/"+result.Filename, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = serve(t, r, httptest.NewRequest(http.MethodDelete, "/gallery/.hidden", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStats(t *testing.T) {
	deps := newTestDeps(t)
	deps.QueueStatus = fakeQueueStatus("healthy")
	r := newTestRouter(deps)

	rec, resp := serve(t, r, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	require.EqualValues(t, 3, stats["queue"]["messages"])

	deps.QueueStatus = fakeQueueStatus("unhealthy")
	r = newTestRouter(deps)
	rec, resp = serve(t, r, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	stats = nil
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	require.Equal(t, "channel closed", stats["queue"]["error"])
}
