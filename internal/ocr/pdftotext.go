package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text with the poppler pdftotext CLI, feeding the PDF
// on stdin.
type PdfToText struct {
	binPath  string
	maxPages int
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is used; maxPages <= 0 converts every page.
func NewPdfToText(binPath string, maxPages int) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath, maxPages: maxPages}
}

func (p *PdfToText) args() []string {
	args := []string{"-layout", "-enc", "UTF-8"}
	if p.maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.maxPages))
	}
	return append(args, "-", "-")
}

// ExtractText implements Extractor.
func (p *PdfToText) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, p.args()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(pdf)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext: %s", strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
