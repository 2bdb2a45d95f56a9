package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-admin-api/internal/models"
	"github.com/noah-isme/enrollment-admin-api/internal/query"
)

// exportHeader fixes the nine CSV columns and their order.
var exportHeader = []string{
	"nim",
	"student_name",
	"student_email",
	"course_code",
	"course_name",
	"course_credits",
	"semester",
	"academic_year",
	"status",
}

type enrollmentStreamer interface {
	StreamChunks(ctx context.Context, q query.Compiled, chunkSize int, fn func([]models.EnrollmentRow) error) error
}

// ExportService streams the filtered enrollment join as CSV. It never holds
// more than one chunk of rows in memory, so exports over millions of rows
// stay flat on memory and the client sees continuous progress.
type ExportService struct {
	repo      enrollmentStreamer
	chunkSize int
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo enrollmentStreamer, chunkSize int, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, chunkSize: chunkSize, metrics: metrics, logger: logger}
}

// Filename returns the attachment name for the current export.
func (s *ExportService) Filename() string {
	return fmt.Sprintf("enrollments_%s.csv", time.Now().UTC().Format("20060102_150405"))
}

// Stream writes the header and all matching rows to w, flushing after every
// chunk. flush may be nil. A failure mid-stream aborts the export; the
// truncated output is not valid CSV and the caller must treat it as such.
func (s *ExportService) Stream(ctx context.Context, compiled query.Compiled, w io.Writer, flush func()) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv header: %w", err)
	}
	if flush != nil {
		flush()
	}

	total := 0
	err := s.repo.StreamChunks(ctx, compiled, s.chunkSize, func(rows []models.EnrollmentRow) error {
		for i := range rows {
			if err := writer.Write(exportRecord(&rows[i])); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush csv chunk: %w", err)
		}
		if flush != nil {
			flush()
		}
		total += len(rows)
		if s.metrics != nil {
			s.metrics.AddExportedRows(len(rows))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("csv export aborted", zap.Int("rows_written", total), zap.Error(err))
		return err
	}

	s.logger.Info("csv export complete", zap.Int("rows", total))
	return nil
}

func exportRecord(r *models.EnrollmentRow) []string {
	return []string{
		r.StudentNIM,
		r.StudentName,
		r.StudentEmail,
		r.CourseCode,
		r.CourseName,
		strconv.Itoa(r.CourseCredits),
		string(r.Semester),
		r.AcademicYear,
		string(r.Status),
	}
}
