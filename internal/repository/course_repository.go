package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-admin-api/internal/models"
)

// CourseRepository manages persistence for course records.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const stmt = `SELECT id, code, name, credits, created_at, updated_at FROM courses ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, stmt); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Create inserts a new course. A duplicate code surfaces as a unique
// violation for the caller to translate.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const stmt = `INSERT INTO courses (code, name, credits, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, stmt, course.Code, course.Name, course.Credits)
	if err := row.Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Delete removes a course; enrollments referencing it go with it through the
// schema's cascade rule.
func (r *CourseRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	return affected > 0, nil
}
