package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-admin-api/internal/dto"
	"github.com/noah-isme/enrollment-admin-api/internal/models"
	"github.com/noah-isme/enrollment-admin-api/internal/query"
	appErrors "github.com/noah-isme/enrollment-admin-api/pkg/errors"
	"github.com/noah-isme/enrollment-admin-api/pkg/response"
)

type enrollmentService interface {
	CompileQuery(q dto.ListEnrollmentsQuery) (query.Compiled, error)
	List(ctx context.Context, q dto.ListEnrollmentsQuery) ([]models.EnrollmentRow, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateEnrollmentRequest) (*models.EnrollmentDetail, error)
	Update(ctx context.Context, id int64, req dto.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error)
	Delete(ctx context.Context, id int64) error
}

type exportService interface {
	Filename() string
	Stream(ctx context.Context, compiled query.Compiled, w io.Writer, flush func()) error
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	exports     exportService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService, exports exportService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, exports: exports}
}

// List godoc
// @Summary List enrollments with advanced filtering and multi-column sort
// @Tags Enrollments
// @Produce json
// @Param filters query string false "JSON array of {field, operator, value}"
// @Param sorts query string false "JSON array of {field, direction}"
// @Param sort_by query string false "Legacy single sort field"
// @Param sort_dir query string false "Legacy sort direction"
// @Param logic query string false "AND or OR"
// @Param search query string false "Quick search on nim/name/course code"
// @Param status query string false "Quick status filter"
// @Param semester query string false "Quick semester filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	q := listQuery(c)
	rows, pagination, err := h.enrollments.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Export godoc
// @Summary Export the filtered enrollment list as streamed CSV
// @Tags Enrollments
// @Produce text/csv
// @Success 200 {string} string "CSV attachment"
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	compiled, err := h.enrollments.CompileQuery(listQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+h.exports.Filename()+`"`)
	c.Header("Cache-Control", "no-store, no-cache")

	flush := func() { c.Writer.Flush() }
	if err := h.exports.Stream(c.Request.Context(), compiled, c.Writer, flush); err != nil {
		// headers are already on the wire; a truncated body is all we can
		// leave the client with
		c.Abort()
		return
	}
}

// Create godoc
// @Summary Create an enrollment, upserting its student and course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	detail, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Partially update an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param payload body dto.UpdateEnrollmentRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	id, ok := enrollmentID(c)
	if !ok {
		return
	}
	var req dto.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	detail, err := h.enrollments.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := enrollmentID(c)
	if !ok {
		return
	}
	if err := h.enrollments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "enrollment deleted"}, nil)
}

func enrollmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found"))
		return 0, false
	}
	return id, true
}

func listQuery(c *gin.Context) dto.ListEnrollmentsQuery {
	q := dto.ListEnrollmentsQuery{
		Filters:  c.Query("filters"),
		Sorts:    c.Query("sorts"),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
		Logic:    c.Query("logic"),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Semester: c.Query("semester"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "0")); err == nil {
		q.PageSize = size
	}
	return q
}
