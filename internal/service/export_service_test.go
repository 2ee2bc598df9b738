package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/export"
)

// pagingApplicationStub serves page-sized slices of a fixed dataset so the
// export loop has something to iterate.
type pagingApplicationStub struct {
	applicationStoreStub
	all   []models.ApplicationDetail
	pages []int
}

func (s *pagingApplicationStub) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	s.pages = append(s.pages, filter.Page)
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(s.all) {
		return nil, len(s.all), nil
	}
	end := start + filter.PageSize
	if end > len(s.all) {
		end = len(s.all)
	}
	return s.all[start:end], len(s.all), nil
}

func newExportService(apps pipelineApplicationStore) *ExportService {
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	access := NewAccessService(assignmentStub{allowed: true}, zap.NewNop())
	return NewExportService(apps, jobs, access, export.NewCSVExporter(), zap.NewNop())
}

func TestExportPipelineCSVPagesThroughAllApplications(t *testing.T) {
	all := make([]models.ApplicationDetail, 150)
	for i := range all {
		detail := testDetail("screening")
		detail.ID = string(rune('a'+i%26)) + "-app"
		all[i] = *detail
	}
	apps := &pagingApplicationStub{all: all}
	service := newExportService(apps)

	data, filename, err := service.PipelineCSV(context.Background(), recruiterClaims(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, apps.pages)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 151)
	assert.Equal(t, "application_id,candidate,stage,applied_at,offered_at,hired_at,rejected_at", lines[0])
	assert.Contains(t, filename, "pipeline-job-1-")
	assert.True(t, strings.HasSuffix(filename, ".csv"))
}

func TestExportPipelineCSVFormatsMilestones(t *testing.T) {
	offered := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	detail := testDetail("offer")
	detail.OfferedAt = &offered
	apps := &pagingApplicationStub{all: []models.ApplicationDetail{*detail}}
	service := newExportService(apps)

	data, _, err := service.PipelineCSV(context.Background(), recruiterClaims(), "job-1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2026-03-01T09:00:00Z")
	// Unset milestones render as empty cells, not zero times.
	assert.True(t, strings.HasSuffix(lines[1], ",,"))
}

func TestExportPipelineCSVUnknownJobNotFound(t *testing.T) {
	service := newExportService(&pagingApplicationStub{})

	_, _, err := service.PipelineCSV(context.Background(), recruiterClaims(), "job-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
