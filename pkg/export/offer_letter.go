package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// OfferLetterData carries everything the letter template needs.
type OfferLetterData struct {
	OrganizationName string
	CandidateName    string
	JobTitle         string
	Reference        string
	IssuedAt         time.Time
	Paragraphs       []string
}

// OfferLetterRenderer renders offer letters as single-page PDFs.
type OfferLetterRenderer struct{}

// NewOfferLetterRenderer constructs the renderer.
func NewOfferLetterRenderer() *OfferLetterRenderer {
	return &OfferLetterRenderer{}
}

// Render produces the PDF bytes for an offer letter.
func (r *OfferLetterRenderer) Render(data OfferLetterData) ([]byte, error) {
	if data.OrganizationName == "" || data.CandidateName == "" || data.JobTitle == "" {
		return nil, fmt.Errorf("offer letter requires organization, candidate, and job title")
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now().UTC()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, data.OrganizationName, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, data.IssuedAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	if data.Reference != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Ref: %s", data.Reference), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Offer of Employment - %s", data.JobTitle), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("Dear %s,", data.CandidateName), "", "L", false)
	pdf.Ln(2)

	paragraphs := data.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = []string{
			fmt.Sprintf("We are pleased to offer you the position of %s at %s.", data.JobTitle, data.OrganizationName),
			"Please review the enclosed terms and confirm your acceptance through the candidate portal.",
		}
	}
	for _, p := range paragraphs {
		pdf.MultiCell(0, 6, p, "", "L", false)
		pdf.Ln(2)
	}

	pdf.Ln(6)
	pdf.MultiCell(0, 6, "Sincerely,", "", "L", false)
	pdf.MultiCell(0, 6, data.OrganizationName, "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render offer letter: %w", err)
	}
	return buf.Bytes(), nil
}
