package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-admin-api/internal/dto"
	"github.com/noah-isme/enrollment-admin-api/internal/models"
	"github.com/noah-isme/enrollment-admin-api/internal/query"
	appErrors "github.com/noah-isme/enrollment-admin-api/pkg/errors"
	"github.com/noah-isme/enrollment-admin-api/pkg/response"
)

type fakeEnrollmentService struct {
	compileFn func(q dto.ListEnrollmentsQuery) (query.Compiled, error)
	listFn    func(ctx context.Context, q dto.ListEnrollmentsQuery) ([]models.EnrollmentRow, *models.Pagination, error)
	createFn  func(ctx context.Context, req dto.CreateEnrollmentRequest) (*models.EnrollmentDetail, error)
	updateFn  func(ctx context.Context, id int64, req dto.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error)
	deleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeEnrollmentService) CompileQuery(q dto.ListEnrollmentsQuery) (query.Compiled, error) {
	return f.compileFn(q)
}

func (f *fakeEnrollmentService) List(ctx context.Context, q dto.ListEnrollmentsQuery) ([]models.EnrollmentRow, *models.Pagination, error) {
	return f.listFn(ctx, q)
}

func (f *fakeEnrollmentService) Create(ctx context.Context, req dto.CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	return f.createFn(ctx, req)
}

func (f *fakeEnrollmentService) Update(ctx context.Context, id int64, req dto.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	return f.updateFn(ctx, id, req)
}

func (f *fakeEnrollmentService) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

type fakeExportService struct {
	streamFn func(ctx context.Context, compiled query.Compiled, w io.Writer, flush func()) error
}

func (f *fakeExportService) Filename() string { return "enrollments_20240101_000000.csv" }

func (f *fakeExportService) Stream(ctx context.Context, compiled query.Compiled, w io.Writer, flush func()) error {
	return f.streamFn(ctx, compiled, w, flush)
}

func newEnrollmentRouter(svc *fakeEnrollmentService, exports *fakeExportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEnrollmentHandler(svc, exports)
	router := gin.New()
	router.GET("/enrollments", h.List)
	router.GET("/enrollments/export", h.Export)
	router.POST("/enrollments", h.Create)
	router.PUT("/enrollments/:id", h.Update)
	router.DELETE("/enrollments/:id", h.Delete)
	return router
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestEnrollmentHandlerList(t *testing.T) {
	var gotQuery dto.ListEnrollmentsQuery
	svc := &fakeEnrollmentService{
		listFn: func(_ context.Context, q dto.ListEnrollmentsQuery) ([]models.EnrollmentRow, *models.Pagination, error) {
			gotQuery = q
			return []models.EnrollmentRow{{ID: 1, StudentNIM: "2021000001"}},
				&models.Pagination{Page: 2, PageSize: 25, TotalCount: 51}, nil
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		`/enrollments?page=2&page_size=25&status=DRAFT&logic=OR&search=ada&filters=[]`, nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gotQuery.Page)
	assert.Equal(t, 25, gotQuery.PageSize)
	assert.Equal(t, "DRAFT", gotQuery.Status)
	assert.Equal(t, "OR", gotQuery.Logic)
	assert.Equal(t, "ada", gotQuery.Search)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 51, envelope.Pagination.TotalCount)
}

func TestEnrollmentHandlerListError(t *testing.T) {
	svc := &fakeEnrollmentService{
		listFn: func(context.Context, dto.ListEnrollmentsQuery) ([]models.EnrollmentRow, *models.Pagination, error) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidInput, "malformed filters parameter")
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enrollments?filters={bad", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidInput.Code, envelope.Error.Code)
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	svc := &fakeEnrollmentService{
		createFn: func(_ context.Context, req dto.CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
			assert.Equal(t, "2021000001", req.NIM)
			return &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: 11}}, nil
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	body := `{"nim":"2021000001","student_name":"Ada","email":"ada@example.com",
        "course_code":"IF101","course_name":"Algorithms","credits":4,
        "academic_year":"2023/2024","semester":"GANJIL","status":"DRAFT"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/enrollments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEnrollmentHandlerCreateDuplicate(t *testing.T) {
	svc := &fakeEnrollmentService{
		createFn: func(context.Context, dto.CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
			return nil, appErrors.ErrDuplicateEnrollment
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/enrollments", strings.NewReader(`{"nim":"2021000001"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE_ENROLLMENT", envelope.Error.Code)
}

func TestEnrollmentHandlerCreateMalformedBody(t *testing.T) {
	router := newEnrollmentRouter(&fakeEnrollmentService{}, &fakeExportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/enrollments", strings.NewReader(`{"nim":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEnrollmentHandlerUpdateBadID(t *testing.T) {
	router := newEnrollmentRouter(&fakeEnrollmentService{}, &fakeExportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/enrollments/abc", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentHandlerUpdate(t *testing.T) {
	svc := &fakeEnrollmentService{
		updateFn: func(_ context.Context, id int64, req dto.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
			assert.Equal(t, int64(11), id)
			require.NotNil(t, req.Status)
			assert.Equal(t, "APPROVED", *req.Status)
			return &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: id}}, nil
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/enrollments/11", strings.NewReader(`{"status":"APPROVED"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnrollmentHandlerDelete(t *testing.T) {
	svc := &fakeEnrollmentService{
		deleteFn: func(_ context.Context, id int64) error {
			assert.Equal(t, int64(5), id)
			return nil
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/enrollments/5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnrollmentHandlerDeleteNotFound(t *testing.T) {
	svc := &fakeEnrollmentService{
		deleteFn: func(context.Context, int64) error {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/enrollments/5", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentHandlerExport(t *testing.T) {
	svc := &fakeEnrollmentService{
		compileFn: func(q dto.ListEnrollmentsQuery) (query.Compiled, error) {
			assert.Equal(t, "DRAFT", q.Status)
			return query.Compiled{Where: "e.status = $1", Args: []interface{}{"DRAFT"}, OrderBy: "e.id DESC"}, nil
		},
	}
	exports := &fakeExportService{
		streamFn: func(_ context.Context, compiled query.Compiled, w io.Writer, flush func()) error {
			assert.Equal(t, "e.status = $1", compiled.Where)
			_, err := w.Write([]byte("nim,student_name\n2021000001,Ada\n"))
			flush()
			return err
		},
	}
	router := newEnrollmentRouter(svc, exports)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enrollments/export?status=DRAFT", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="enrollments_`)
	assert.Contains(t, rec.Body.String(), "2021000001,Ada")
}

func TestEnrollmentHandlerExportCompileError(t *testing.T) {
	svc := &fakeEnrollmentService{
		compileFn: func(dto.ListEnrollmentsQuery) (query.Compiled, error) {
			return query.Compiled{}, appErrors.Clone(appErrors.ErrInvalidInput, "malformed sorts parameter")
		},
	}
	router := newEnrollmentRouter(svc, &fakeExportService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enrollments/export?sorts={bad", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidInput.Code, envelope.Error.Code)
}
