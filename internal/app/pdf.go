package app

import (
    "fmt"
    "strings"

    "github.com/jung-kurt/gofpdf"
)

// WriteReportPDF renders a one-page PDF summary of an analysis. Text is
// translated to the core fonts' cp1252 encoding so accented titles survive.
func WriteReportPDF(resp Response, sourceURL string, outPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetTitle(resp.Title, true)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 16)
    pdf.MultiCell(0, 8, tr(resp.Title), "", "L", false)
    pdf.Ln(2)

    pdf.SetFont("Helvetica", "", 10)
    if resp.Byline != "" {
        pdf.CellFormat(0, 6, tr("By "+resp.Byline), "", 1, "L", false, 0, "")
    }
    if sourceURL != "" {
        pdf.SetTextColor(0, 0, 180)
        pdf.WriteLinkString(6, sourceURL, sourceURL)
        pdf.SetTextColor(0, 0, 0)
        pdf.Ln(6)
    }
    pdf.CellFormat(0, 6, fmt.Sprintf("Words analyzed: %d", resp.WordCount), "", 1, "L", false, 0, "")
    pdf.Ln(4)

    v := resp.Analysis
    pdf.SetFont("Helvetica", "B", 13)
    pdf.CellFormat(0, 8, tr(v.Label), "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "", 11)
    pdf.CellFormat(0, 6, fmt.Sprintf("Confidence: %.0f%%", v.Confidence*100), "", 1, "L", false, 0, "")
    if len(v.Categories) > 0 {
        pdf.CellFormat(0, 6, tr("Categories: "+strings.Join(v.Categories, ", ")), "", 1, "L", false, 0, "")
    }
    pdf.Ln(3)
    pdf.SetFont("Helvetica", "B", 11)
    pdf.CellFormat(0, 6, "Reasoning", "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "", 11)
    pdf.MultiCell(0, 5, tr(v.Reasoning), "", "L", false)

    return pdf.OutputFileAndClose(outPath)
}
