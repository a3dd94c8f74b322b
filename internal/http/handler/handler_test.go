package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"cardocs/internal/expiry"
	"cardocs/internal/http/middleware"
	"cardocs/internal/model"
	"cardocs/internal/reconcile"
	reconcileMocks "cardocs/internal/reconcile/mocks"
	"cardocs/internal/registry"
	registryMocks "cardocs/internal/registry/mocks"
	"cardocs/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 2025-05-15 09:00 UTC
func testClassifier() *expiry.Classifier {
	return &expiry.Classifier{
		WindowDays: expiry.DefaultWindowDays,
		Location:   time.UTC,
		Now:        func() time.Time { return time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC) },
	}
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	return app
}

func decodeError(t *testing.T, body io.Reader) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newApp()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeError(t, resp.Body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Get("/documents", ListDocuments(mockReg, testClassifier()))

	t.Run("success with classifications", func(t *testing.T) {
		docs := []model.Document{
			{ID: uuid.NewString(), Title: "Insurance", Date: model.NewDate(2025, time.June, 1), Type: model.DocumentTypeInsurance},
			{ID: uuid.NewString(), Title: "PUC", Date: model.NewDate(2025, time.January, 1), Type: model.DocumentTypePollution},
			{ID: uuid.NewString(), Title: "Broken", Type: model.DocumentTypeOther},
		}
		mockReg.On("ListDocuments", mock.Anything).Return(docs, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result struct {
			Items []struct {
				Title         string `json:"title"`
				Date          string `json:"date"`
				Status        string `json:"status"`
				RemainingDays int    `json:"remaining_days"`
			} `json:"items"`
			Total int `json:"total"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Len(t, result.Items, 3)
		assert.Equal(t, 3, result.Total)

		assert.Equal(t, "2025-06-01", result.Items[0].Date)
		assert.Equal(t, "expiring_soon", result.Items[0].Status)
		assert.Equal(t, 17, result.Items[0].RemainingDays)
		assert.Equal(t, "expired", result.Items[1].Status)
		assert.Equal(t, "unknown", result.Items[2].Status)
		mockReg.AssertExpectations(t)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mockReg.On("ListDocuments", mock.Anything).Return(nil, service.ErrStoreUnavailable).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeError(t, resp.Body)
		assert.Equal(t, "STORE_UNAVAILABLE", body.Error.Code)
		assert.True(t, body.Error.Retryable)
	})

	t.Run("unexpected error", func(t *testing.T) {
		mockReg.On("ListDocuments", mock.Anything).Return(nil, errors.New("boom")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp.Body).Error.Code)
	})
}

func TestAddDocument(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Post("/documents", AddDocument(mockReg, testClassifier()))

	in := service.AddDocumentInput{Title: "Insurance", Date: "2025-06-01", Type: "insurance"}

	t.Run("json body", func(t *testing.T) {
		doc := &model.Document{ID: uuid.NewString(), Title: "Insurance", Date: model.NewDate(2025, time.June, 1), Type: model.DocumentTypeInsurance}
		mockReg.On("AddDocument", mock.Anything, in).Return(doc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"title":"Insurance","date":"2025-06-01","type":"insurance"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, doc.ID, result["id"])
		assert.Equal(t, "expiring_soon", result["status"])
		assert.Equal(t, float64(17), result["remaining_days"])
		mockReg.AssertExpectations(t)
	})

	t.Run("form body", func(t *testing.T) {
		doc := &model.Document{ID: uuid.NewString(), Title: "Insurance", Date: model.NewDate(2025, time.June, 1), Type: model.DocumentTypeInsurance}
		mockReg.On("AddDocument", mock.Anything, in).Return(doc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("title=Insurance&date=2025-06-01&type=insurance"))
		req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockReg.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		verr := &service.ValidationError{Fields: map[string]string{"title": "is required"}}
		mockReg.On("AddDocument", mock.Anything, service.AddDocumentInput{Date: "2025-06-01", Type: "other"}).Return(nil, verr).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"date":"2025-06-01","type":"other"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp.Body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "is required", body.Error.Fields["title"])
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"title":`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp.Body).Error.Code)
	})
}

func TestGetDocument(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Get("/documents/:id", GetDocument(mockReg, testClassifier()))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockReg.On("GetDocument", mock.Anything, id).
			Return(&model.Document{ID: id, Title: "RC", Date: model.NewDate(2030, time.January, 1), Type: model.DocumentTypeOther}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, id, result["id"])
		assert.Equal(t, "valid", result["status"])
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockReg.On("GetDocument", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp.Body).Error.Code)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Delete("/documents/:id", DeleteDocument(mockReg))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockReg.On("DeleteDocument", mock.Anything, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockReg.On("DeleteDocument", mock.Anything, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func multipartBody(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadFile(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Post("/uploads/:category", UploadFile(mockReg))

	matchInput := func(cat model.Category) any {
		return mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Category == cat && in.Name == "file.pdf" && in.ContentType == "application/pdf" && in.Size == 5 && in.Content != nil
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := &model.UploadedFile{ID: uuid.NewString(), Name: "file.pdf", Category: model.CategoryRC, StoragePath: "documents/rc/file.pdf"}
		mockReg.On("UploadFile", mock.Anything, matchInput(model.CategoryRC)).Return(rec, nil).Once()

		body, ct := multipartBody(t, "file.pdf", "application/pdf", "hello")
		req := httptest.NewRequest(http.MethodPost, "/uploads/rc", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.UploadedFile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, rec.ID, result.ID)
		mockReg.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/uploads/rc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		verr := &service.ValidationError{Fields: map[string]string{"category": "must be one of: driving_license, rc, pollution_certificate"}}
		mockReg.On("UploadFile", mock.Anything, matchInput("passport")).Return(nil, verr).Once()

		body, ct := multipartBody(t, "file.pdf", "application/pdf", "hello")
		req := httptest.NewRequest(http.MethodPost, "/uploads/passport", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Contains(t, res.Error.Fields, "category")
	})

	t.Run("partial failure", func(t *testing.T) {
		pf := &service.PartialFailureError{Op: "upload", Key: "documents/rc/file.pdf", Err: errors.New("db fail")}
		mockReg.On("UploadFile", mock.Anything, matchInput(model.CategoryRC)).Return(nil, pf).Once()

		body, ct := multipartBody(t, "file.pdf", "application/pdf", "hello")
		req := httptest.NewRequest(http.MethodPost, "/uploads/rc", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "PARTIAL_FAILURE", res.Error.Code)
		assert.True(t, res.Error.Retryable)
		assert.NotContains(t, res.Error.Message, "db fail")
	})
}

func TestListUploads(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Get("/uploads", ListUploads(mockReg))

	mockReg.On("ListUploadedFiles", mock.Anything).Return([]model.UploadedFile{
		{ID: "1", Name: "file.pdf", Category: model.CategoryRC},
		{ID: "2", Name: "file.pdf", Category: model.CategoryRC},
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/uploads", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Items []model.UploadedFile `json:"items"`
		Total int                  `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 2, result.Total)
}

func TestRemoveUpload(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Delete("/uploads/:id", RemoveUpload(mockReg))

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "success", wantCode: http.StatusNoContent},
		{name: "not found", err: service.ErrNotFound, wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{
			name:     "orphan blob",
			err:      &service.PartialFailureError{Op: "remove", Key: "documents/rc/file.pdf", Err: service.ErrStoreUnavailable},
			wantCode: http.StatusInternalServerError,
			wantErr:  "PARTIAL_FAILURE",
		},
		{name: "store unavailable", err: service.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable, wantErr: "STORE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.NewString()
			mockReg.On("RemoveUploadedFile", mock.Anything, id).Return(tt.err).Once()

			resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/uploads/"+id, nil))

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, resp.Body).Error.Code)
			}
		})
	}
}

func TestDownloadUpload(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Get("/uploads/:id/download", DownloadUpload(mockReg))

	id := uuid.NewString()
	mockReg.On("DownloadURL", mock.Anything, id).Return("http://minio:9000/cardocs/documents/rc/file.pdf?X-Amz-Signature=abc", nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/uploads/"+id+"/download", nil))

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://minio:9000/cardocs/documents/rc/file.pdf?X-Amz-Signature=abc", resp.Header.Get("Location"))
}

func TestDashboard(t *testing.T) {
	mockReg := new(registryMocks.MockRegistry)
	app := newApp()
	app.Get("/dashboard", Dashboard(mockReg, testClassifier()))

	mockReg.On("Snapshot").Return(registry.Snapshot{
		Documents: []model.Document{{ID: "d1", Title: "Insurance", Date: model.NewDate(2025, time.June, 1), Type: model.DocumentTypeInsurance}},
		Uploads:   []model.UploadedFile{{ID: "u1", Name: "dl.png", Category: model.CategoryDrivingLicense}},
		Stale:     true,
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Documents []map[string]any                `json:"documents"`
		Uploads   map[string][]model.UploadedFile `json:"uploads"`
		Stale     bool                            `json:"stale"`
		Window    int                             `json:"window_days"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "expiring_soon", result.Documents[0]["status"])
	assert.Len(t, result.Uploads["driving_license"], 1)
	assert.Empty(t, result.Uploads["rc"])
	assert.Contains(t, result.Uploads, "pollution_certificate")
	assert.True(t, result.Stale)
	assert.Equal(t, 30, result.Window)
}

func TestReconcileEndpoints(t *testing.T) {
	mockRec := new(reconcileMocks.MockReconciler)
	app := newApp()
	app.Get("/reconcile", CheckReconcile(mockRec))
	app.Post("/reconcile", SweepReconcile(mockRec))

	t.Run("check", func(t *testing.T) {
		mockRec.On("Check", mock.Anything).Return(reconcile.Report{OrphanBlobs: []string{"documents/rc/file.pdf"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/reconcile", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var rep reconcile.Report
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
		assert.Equal(t, []string{"documents/rc/file.pdf"}, rep.OrphanBlobs)
	})

	t.Run("sweep", func(t *testing.T) {
		mockRec.On("Sweep", mock.Anything).Return(reconcile.Report{Removed: []string{"documents/rc/file.pdf"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/reconcile", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var rep reconcile.Report
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
		assert.Equal(t, []string{"documents/rc/file.pdf"}, rep.Removed)
	})

	t.Run("storage down", func(t *testing.T) {
		mockRec.On("Check", mock.Anything).Return(reconcile.Report{}, errors.New("minio down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/reconcile", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "STORE_UNAVAILABLE", decodeError(t, resp.Body).Error.Code)
	})
}

func TestRegisterRoutes(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "cardocs_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	app := newApp()
	RegisterRoutes(app, Deps{
		DB:         db,
		Registry:   new(registryMocks.MockRegistry),
		Classifier: testClassifier(),
		Reconciler: new(reconcileMocks.MockReconciler),
		Gatherer:   reg,
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(b), "cardocs_test_total 1")
	})

	t.Run("health", func(t *testing.T) {
		dbMock.ExpectPing()
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("docs", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})
}
