package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/service"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
	"github.com/careerlab/careerlab-os/pkg/export"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type examService interface {
	List(ctx context.Context) ([]models.ExamSummary, error)
	Get(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, req service.CreateExamRequest) (*models.Exam, error)
	Generate(ctx context.Context, id string, req service.GenerateQuestionsRequest) (*models.Exam, error)
}

type resultAuditService interface {
	ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error)
	Audit(ctx context.Context, resultID string) (*models.ExamResult, error)
}

// ExamHandler wires assessment administration endpoints.
type ExamHandler struct {
	service examService
	results resultAuditService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewExamHandler constructs the handler.
func NewExamHandler(svc examService, results resultAuditService) *ExamHandler {
	return &ExamHandler{
		service: svc,
		results: results,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// List godoc
// @Summary List exams with attempt counts
// @Tags Exams
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	exams, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Get godoc
// @Summary Fetch one exam including answer keys
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	exam, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Create godoc
// @Summary Create an exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body service.CreateExamRequest true "Exam"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req service.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	exam, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Generate godoc
// @Summary Generate a question set for an exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body service.GenerateQuestionsRequest true "Generation parameters"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id}/generate [post]
func (h *ExamHandler) Generate(c *gin.Context) {
	var req service.GenerateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	exam, err := h.service.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Results godoc
// @Summary List recorded attempts for an exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id}/results [get]
func (h *ExamHandler) Results(c *gin.Context) {
	results, err := h.results.ListByExam(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ExportResults godoc
// @Summary Export attempts for an exam as CSV or PDF
// @Tags Exams
// @Produce octet-stream
// @Param id path string true "Exam ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /exams/{id}/results/export [get]
func (h *ExamHandler) ExportResults(c *gin.Context) {
	examID := c.Param("id")
	exam, err := h.service.Get(c.Request.Context(), examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.results.ListByExam(c.Request.Context(), examID)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := resultsDataset(results)
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-results.csv", examID))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, fmt.Sprintf("%s - Results", exam.Title))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-results.pdf", examID))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func resultsDataset(results []models.ExamResult) export.Dataset {
	headers := []string{"Student", "Email", "Score", "Status", "Violations", "Submitted At"}
	rows := make([]map[string]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, map[string]string{
			"Student":      r.StudentName,
			"Email":        r.Email,
			"Score":        strconv.Itoa(r.Score),
			"Status":       string(r.Status),
			"Violations":   strconv.Itoa(len(r.SecurityFlags)),
			"Submitted At": r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
