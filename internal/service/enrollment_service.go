package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-admin-api/internal/dto"
	"github.com/noah-isme/enrollment-admin-api/internal/models"
	"github.com/noah-isme/enrollment-admin-api/internal/query"
	"github.com/noah-isme/enrollment-admin-api/internal/repository"
	appErrors "github.com/noah-isme/enrollment-admin-api/pkg/errors"
)

const countCachePrefix = "enrollments:count:"

type enrollmentRepository interface {
	List(ctx context.Context, q query.Compiled, page, size int) ([]models.EnrollmentRow, error)
	Count(ctx context.Context, q query.Compiled) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error)
	CreateWithRefs(ctx context.Context, in repository.EnrollmentInput) (int64, error)
	UpdateWithRefs(ctx context.Context, current *models.Enrollment, in repository.EnrollmentUpdate) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// ListConfig carries the pagination tuning for the list endpoint.
type ListConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// EnrollmentService orchestrates the enrollment list, export query
// compilation and the transactional upsert workflows.
type EnrollmentService struct {
	repo      enrollmentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ListConfig
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, cfg ListConfig, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &EnrollmentService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// CompileQuery normalizes the raw filter/sort parameters and compiles them.
// The list and export endpoints share it so both see identical semantics.
func (s *EnrollmentService) CompileQuery(q dto.ListEnrollmentsQuery) (query.Compiled, error) {
	filters, err := query.ParseFilters(q.Filters)
	if err != nil {
		return query.Compiled{}, err
	}
	sorts, err := query.ParseSorts(q.Sorts, q.SortBy, q.SortDir)
	if err != nil {
		return query.Compiled{}, err
	}
	return query.Compile(query.Params{
		Filters:  filters,
		Logic:    q.Logic,
		Search:   q.Search,
		Status:   q.Status,
		Semester: q.Semester,
		Sorts:    sorts,
	}), nil
}

// List returns one page of joined enrollment rows plus pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, q dto.ListEnrollmentsQuery) ([]models.EnrollmentRow, *models.Pagination, error) {
	compiled, err := s.CompileQuery(q)
	if err != nil {
		return nil, nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}

	start := time.Now()
	rows, err := s.repo.List(ctx, compiled, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("enrollments_list", time.Since(start))
	}

	total, err := s.count(ctx, compiled)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// count consults the optional Redis cache before hitting the database; the
// COUNT(*) over the three-way join is the expensive half of every list call.
func (s *EnrollmentService) count(ctx context.Context, compiled query.Compiled) (int, error) {
	key := countCacheKey(compiled)
	var total int
	if hit, _ := s.cache.Get(ctx, key, &total); hit {
		return total, nil
	}
	start := time.Now()
	total, err := s.repo.Count(ctx, compiled)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("enrollments_count", time.Since(start))
	}
	_ = s.cache.Set(ctx, key, total, 0)
	return total, nil
}

// Create upserts the student and course by natural key and inserts the
// enrollment inside one transaction.
func (s *EnrollmentService) Create(ctx context.Context, req dto.CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	id, err := s.repo.CreateWithRefs(ctx, repository.EnrollmentInput{
		NIM:          req.NIM,
		StudentName:  req.StudentName,
		Email:        req.Email,
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Credits:      req.Credits,
		AcademicYear: req.AcademicYear,
		Semester:     models.Semester(req.Semester),
		Status:       models.EnrollmentStatus(req.Status),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.invalidateCounts(ctx)

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Update applies a partial update; only supplied fields are validated and
// written.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req dto.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	err = s.repo.UpdateWithRefs(ctx, current, repository.EnrollmentUpdate{
		NIM:          req.NIM,
		StudentName:  req.StudentName,
		Email:        req.Email,
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Credits:      req.Credits,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Status:       req.Status,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.invalidateCounts(ctx)

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	s.invalidateCounts(ctx)
	return nil
}

func (s *EnrollmentService) invalidateCounts(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, countCachePrefix+"*"); err != nil {
		s.logger.Warn("count cache invalidation failed", zap.Error(err))
	}
}

func countCacheKey(compiled query.Compiled) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%v", compiled.Where, compiled.Args)))
	return countCachePrefix + hex.EncodeToString(sum[:])
}

// validationError maps a validator failure to the 422 taxonomy, naming the
// offending fields without echoing their values.
func validationError(err error, message string) *appErrors.Error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		message = message + ": " + strings.Join(fields, ", ")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
