package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRenderOrdersColumnsByHeader(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"candidate", "stage"},
		Rows: []map[string]string{
			{"stage": "interview", "candidate": "Dana Smith"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "candidate,stage", lines[0])
	require.Equal(t, "Dana Smith,interview", lines[1])
}

func TestCSVRenderFillsMissingCells(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"candidate", "stage", "hired_at"},
		Rows:    []map[string]string{{"candidate": "Dana Smith"}},
	})
	require.NoError(t, err)
	require.Contains(t, string(out), "Dana Smith,,")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestOfferLetterRenderProducesPDF(t *testing.T) {
	out, err := NewOfferLetterRenderer().Render(OfferLetterData{
		OrganizationName: "Acme Corp",
		CandidateName:    "Dana Smith",
		JobTitle:         "Backend Engineer",
		Reference:        "offer-1",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestOfferLetterRenderRequiresIdentity(t *testing.T) {
	_, err := NewOfferLetterRenderer().Render(OfferLetterData{JobTitle: "Backend Engineer"})
	require.Error(t, err)
}
