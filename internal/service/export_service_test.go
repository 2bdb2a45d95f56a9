package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-admin-api/internal/models"
	"github.com/noah-isme/enrollment-admin-api/internal/query"
)

type fakeStreamer struct {
	chunks    [][]models.EnrollmentRow
	err       error
	chunkSize int
}

func (f *fakeStreamer) StreamChunks(_ context.Context, _ query.Compiled, chunkSize int, fn func([]models.EnrollmentRow) error) error {
	f.chunkSize = chunkSize
	for _, chunk := range f.chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return f.err
}

func exportRow(nim, name string) models.EnrollmentRow {
	return models.EnrollmentRow{
		StudentNIM:    nim,
		StudentName:   name,
		StudentEmail:  name + "@example.com",
		CourseCode:    "IF101",
		CourseName:    "Algorithms",
		CourseCredits: 4,
		Semester:      models.SemesterGanjil,
		AcademicYear:  "2023/2024",
		Status:        models.EnrollmentStatusDraft,
	}
}

func TestExportServiceStream(t *testing.T) {
	streamer := &fakeStreamer{chunks: [][]models.EnrollmentRow{
		{exportRow("2021000001", "Ada"), exportRow("2021000002", "Grace")},
		{exportRow("2021000003", "Edsger")},
	}}
	svc := NewExportService(streamer, 2, nil, zap.NewNop())

	var buf bytes.Buffer
	flushes := 0
	err := svc.Stream(context.Background(), query.Compiled{}, &buf, func() { flushes++ })
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "nim,student_name,student_email,course_code,course_name,course_credits,semester,academic_year,status", lines[0])
	assert.Equal(t, "2021000001,Ada,Ada@example.com,IF101,Algorithms,4,GANJIL,2023/2024,DRAFT", lines[1])
	assert.Equal(t, "2021000003,Edsger,Edsger@example.com,IF101,Algorithms,4,GANJIL,2023/2024,DRAFT", lines[3])

	// header plus one per chunk
	assert.Equal(t, 3, flushes)
	assert.Equal(t, 2, streamer.chunkSize)
}

func TestExportServiceStreamNilFlush(t *testing.T) {
	streamer := &fakeStreamer{chunks: [][]models.EnrollmentRow{{exportRow("2021000001", "Ada")}}}
	svc := NewExportService(streamer, 0, nil, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, svc.Stream(context.Background(), query.Compiled{}, &buf, nil))
	assert.Equal(t, 5000, streamer.chunkSize)
}

func TestExportServiceStreamPropagatesError(t *testing.T) {
	streamer := &fakeStreamer{
		chunks: [][]models.EnrollmentRow{{exportRow("2021000001", "Ada")}},
		err:    errors.New("connection reset"),
	}
	svc := NewExportService(streamer, 2, nil, zap.NewNop())

	var buf bytes.Buffer
	err := svc.Stream(context.Background(), query.Compiled{}, &buf, nil)
	require.Error(t, err)
	// the rows streamed before the failure were already written
	assert.Contains(t, buf.String(), "2021000001")
}

func TestExportServiceFilename(t *testing.T) {
	name := NewExportService(&fakeStreamer{}, 0, nil, zap.NewNop()).Filename()
	assert.Regexp(t, `^enrollments_\d{8}_\d{6}\.csv$`, name)
}
