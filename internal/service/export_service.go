package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/export"
)

// ExportService produces CSV snapshots of a job's pipeline for offline
// review. Exports include only non-deleted applications.
type ExportService struct {
	applications pipelineApplicationStore
	jobsRepo     pipelineJobStore
	access       *AccessService
	csv          *export.CSVExporter
	logger       *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(applications pipelineApplicationStore, jobsRepo pipelineJobStore, access *AccessService, csv *export.CSVExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{applications: applications, jobsRepo: jobsRepo, access: access, csv: csv, logger: logger}
}

// PipelineCSV renders the job's current pipeline as CSV. Returns the bytes
// and a suggested filename.
func (s *ExportService) PipelineCSV(ctx context.Context, claims *models.JWTClaims, jobID string) ([]byte, string, error) {
	if claims == nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	job, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return nil, "", err
	}

	filter := models.ApplicationFilter{JobID: jobID, Page: 1, PageSize: 100}
	var applications []models.ApplicationDetail
	for {
		batch, total, err := s.applications.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pipeline")
		}
		applications = append(applications, batch...)
		if len(batch) == 0 || len(applications) >= total {
			break
		}
		filter.Page++
	}

	headers := []string{"application_id", "candidate", "stage", "applied_at", "offered_at", "hired_at", "rejected_at"}
	rows := make([]map[string]string, 0, len(applications))
	for _, app := range applications {
		rows = append(rows, map[string]string{
			"application_id": app.ID,
			"candidate":      app.CandidateName,
			"stage":          app.Stage,
			"applied_at":     app.CreatedAt.Format(time.RFC3339),
			"offered_at":     formatOptionalTime(app.OfferedAt),
			"hired_at":       formatOptionalTime(app.HiredAt),
			"rejected_at":    formatOptionalTime(app.RejectedAt),
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("pipeline-%s-%s.csv", job.ID, time.Now().UTC().Format("20060102"))
	return data, filename, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
