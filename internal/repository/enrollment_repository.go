package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/enrollment-admin-api/internal/models"
	"github.com/noah-isme/enrollment-admin-api/internal/query"
)

const enrollmentJoin = `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id`

const enrollmentColumns = `e.id, e.academic_year, e.semester, e.status, e.created_at, e.updated_at,
s.nim AS student_nim, s.name AS student_name, s.email AS student_email,
c.code AS course_code, c.name AS course_name, c.credits AS course_credits`

// EnrollmentInput carries the natural-key payload for the transactional
// upsert-then-link write on create.
type EnrollmentInput struct {
	NIM          string
	StudentName  string
	Email        string
	CourseCode   string
	CourseName   string
	Credits      int
	AcademicYear string
	Semester     models.Semester
	Status       models.EnrollmentStatus
}

// EnrollmentUpdate carries the optional fields of a partial update. Nil means
// the field was not supplied and must keep its current value.
type EnrollmentUpdate struct {
	NIM          *string
	StudentName  *string
	Email        *string
	CourseCode   *string
	CourseName   *string
	Credits      *int
	AcademicYear *string
	Semester     *string
	Status       *string
}

// EnrollmentRepository handles persistence of enrollments and the student and
// course reference entities they link.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns one page of the joined rows matching the compiled query.
func (r *EnrollmentRepository) List(ctx context.Context, q query.Compiled, page, size int) ([]models.EnrollmentRow, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	stmt := fmt.Sprintf("SELECT %s\n%s%s ORDER BY %s LIMIT %d OFFSET %d",
		enrollmentColumns, enrollmentJoin, whereClause(q), q.OrderBy, size, offset)

	var rows []models.EnrollmentRow
	if err := r.db.SelectContext(ctx, &rows, stmt, q.Args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

// Count returns the total number of rows matching the compiled query.
func (r *EnrollmentRepository) Count(ctx context.Context, q query.Compiled) (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) %s%s", enrollmentJoin, whereClause(q))
	var total int
	if err := r.db.GetContext(ctx, &total, stmt, q.Args...); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

// StreamChunks re-issues the ordered query in LIMIT/OFFSET slices of at most
// chunkSize rows and hands each slice to fn, so peak memory stays bounded by
// the chunk size regardless of the result set. Production stops when fn
// returns an error, the rows run out, or ctx is cancelled.
func (r *EnrollmentRepository) StreamChunks(ctx context.Context, q query.Compiled, chunkSize int, fn func([]models.EnrollmentRow) error) error {
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		stmt := fmt.Sprintf("SELECT %s\n%s%s ORDER BY %s LIMIT %d OFFSET %d",
			enrollmentColumns, enrollmentJoin, whereClause(q), q.OrderBy, chunkSize, offset)
		var rows []models.EnrollmentRow
		if err := r.db.SelectContext(ctx, &rows, stmt, q.Args...); err != nil {
			return fmt.Errorf("stream enrollments: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < chunkSize {
			return nil
		}
		offset += chunkSize
	}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	const stmt = `SELECT id, student_id, course_id, academic_year, semester, status, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, stmt, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with its joined student and course.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	const stmt = `SELECT e.id, e.student_id, e.course_id, e.academic_year, e.semester, e.status, e.created_at, e.updated_at,
        s.id AS "student.id", s.nim AS "student.nim", s.name AS "student.name", s.email AS "student.email",
        s.created_at AS "student.created_at", s.updated_at AS "student.updated_at",
        c.id AS "course.id", c.code AS "course.code", c.name AS "course.name", c.credits AS "course.credits",
        c.created_at AS "course.created_at", c.updated_at AS "course.updated_at"
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, stmt, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateWithRefs upserts the student and course by natural key, overwriting
// their mutable attributes with the supplied values, then inserts the
// enrollment. All three writes share one transaction; a duplicate
// (student, course, year, semester) tuple surfaces as a unique violation.
func (r *EnrollmentRepository) CreateWithRefs(ctx context.Context, in EnrollmentInput) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin enrollment tx: %w", err)
	}

	var studentID int64
	const upsertStudent = `INSERT INTO students (nim, name, email, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        ON CONFLICT (nim) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = NOW()
        RETURNING id`
	if err := tx.GetContext(ctx, &studentID, upsertStudent, in.NIM, in.StudentName, in.Email); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("upsert student: %w", err)
	}

	var courseID int64
	const upsertCourse = `INSERT INTO courses (code, name, credits, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, credits = EXCLUDED.credits, updated_at = NOW()
        RETURNING id`
	if err := tx.GetContext(ctx, &courseID, upsertCourse, in.CourseCode, in.CourseName, in.Credits); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("upsert course: %w", err)
	}

	var enrollmentID int64
	const insertEnrollment = `INSERT INTO enrollments (student_id, course_id, academic_year, semester, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING id`
	if err := tx.GetContext(ctx, &enrollmentID, insertEnrollment, studentID, courseID, in.AcademicYear, in.Semester, in.Status); err != nil {
		tx.Rollback() //nolint:errcheck
		if IsUniqueViolation(err) {
			return 0, err
		}
		return 0, fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit enrollment: %w", err)
	}
	return enrollmentID, nil
}

// UpdateWithRefs applies a partial update to an enrollment. A supplied NIM or
// course code upserts (and possibly relinks) the referenced entity; supplied
// name/email/credits overwrite the current metadata. Everything runs in one
// transaction and a resulting duplicate tuple surfaces as a unique violation.
func (r *EnrollmentRepository) UpdateWithRefs(ctx context.Context, current *models.Enrollment, in EnrollmentUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}

	studentID := current.StudentID
	if in.NIM != nil {
		const upsert = `INSERT INTO students (nim, name, email, created_at, updated_at)
            VALUES ($1, COALESCE($2, 'Unknown'), COALESCE($3, 'student' || $1 || '@example.com'), NOW(), NOW())
            ON CONFLICT (nim) DO UPDATE SET
                name = COALESCE($2, students.name),
                email = COALESCE($3, students.email),
                updated_at = NOW()
            RETURNING id`
		if err := tx.GetContext(ctx, &studentID, upsert, *in.NIM, in.StudentName, in.Email); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert student: %w", err)
		}
	} else if in.StudentName != nil || in.Email != nil {
		const update = `UPDATE students SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, studentID, in.StudentName, in.Email); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update student: %w", err)
		}
	}

	courseID := current.CourseID
	if in.CourseCode != nil {
		const upsert = `INSERT INTO courses (code, name, credits, created_at, updated_at)
            VALUES ($1, COALESCE($2, 'Unknown'), COALESCE($3, 1), NOW(), NOW())
            ON CONFLICT (code) DO UPDATE SET
                name = COALESCE($2, courses.name),
                credits = COALESCE($3, courses.credits),
                updated_at = NOW()
            RETURNING id`
		if err := tx.GetContext(ctx, &courseID, upsert, *in.CourseCode, in.CourseName, in.Credits); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert course: %w", err)
		}
	} else if in.CourseName != nil || in.Credits != nil {
		const update = `UPDATE courses SET name = COALESCE($2, name), credits = COALESCE($3, credits), updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, courseID, in.CourseName, in.Credits); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update course: %w", err)
		}
	}

	const updateEnrollment = `UPDATE enrollments SET
        student_id = $2,
        course_id = $3,
        academic_year = COALESCE($4, academic_year),
        semester = COALESCE($5, semester),
        status = COALESCE($6, status),
        updated_at = NOW()
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateEnrollment, current.ID, studentID, courseID, in.AcademicYear, in.Semester, in.Status); err != nil {
		tx.Rollback() //nolint:errcheck
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// Delete removes an enrollment by ID. Missing rows report sql.ErrNoRows via
// the affected-row count.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM enrollments WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	return affected > 0, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func whereClause(q query.Compiled) string {
	if q.Where == "" {
		return ""
	}
	return " WHERE " + q.Where
}
