package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	"github.com/eti-mis/academics-api/pkg/export"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders transcripts into downloadable documents.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

var transcriptHeaders = []string{"Level", "Semester", "Code", "Course", "Credits", "Score", "Grade", "Points"}

// TranscriptCSV renders a transcript as CSV. Returns the payload and a
// suggested filename.
func (s *ExportService) TranscriptCSV(transcript *models.Transcript, student *models.Student) ([]byte, string, error) {
	dataset := transcriptDataset(transcript)
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript csv")
	}
	return payload, transcriptFilename(student, "csv"), nil
}

// TranscriptPDF renders a transcript as PDF.
func (s *ExportService) TranscriptPDF(transcript *models.Transcript, student *models.Student) ([]byte, string, error) {
	dataset := transcriptDataset(transcript)
	title := "Academic Transcript"
	if student != nil {
		title = fmt.Sprintf("Academic Transcript - %s (%s)", student.FullName, student.StudentNo)
	}
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript pdf")
	}
	return payload, transcriptFilename(student, "pdf"), nil
}

// transcriptDataset flattens the nested transcript into table rows, with a
// GPA row closing each semester and a CGPA row at the end.
func transcriptDataset(transcript *models.Transcript) export.Dataset {
	var rows []map[string]string
	for _, level := range transcript.Levels {
		for _, semester := range level.Semesters {
			for _, course := range semester.Courses {
				rows = append(rows, map[string]string{
					"Level":    level.LevelName,
					"Semester": semester.SemesterName,
					"Code":     course.Code,
					"Course":   course.Title,
					"Credits":  fmt.Sprintf("%d", course.CreditHours),
					"Score":    fmt.Sprintf("%.1f", course.Score),
					"Grade":    course.Grade,
					"Points":   fmt.Sprintf("%.1f", course.GradePoint),
				})
			}
			if semester.GPA != nil {
				rows = append(rows, map[string]string{
					"Level":    level.LevelName,
					"Semester": semester.SemesterName,
					"Course":   "Semester GPA",
					"Points":   fmt.Sprintf("%.2f", *semester.GPA),
				})
			}
		}
	}
	if transcript.CGPA != nil {
		rows = append(rows, map[string]string{
			"Course": "Cumulative GPA",
			"Points": fmt.Sprintf("%.2f", *transcript.CGPA),
		})
	}
	return export.Dataset{Headers: transcriptHeaders, Rows: rows}
}

func transcriptFilename(student *models.Student, extension string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	studentPart := "student"
	if student != nil && student.StudentNo != "" {
		studentPart = sanitizeFilename(student.StudentNo)
	}
	return fmt.Sprintf("transcript_%s_%s.%s", studentPart, timestamp, extension)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
