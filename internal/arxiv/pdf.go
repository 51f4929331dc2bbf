package arxiv

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText returns the plain text of the first maxPages pages of the PDF
// at path. maxPages <= 0 reads every page. Pages that fail to decode are
// skipped; an error is returned only if no page yields text.
func ExtractPDFText(path string, maxPages int) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := reader.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	var sb strings.Builder
	var lastErr error
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			lastErr = err
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	if strings.TrimSpace(sb.String()) == "" {
		if lastErr != nil {
			return "", fmt.Errorf("no text extracted from PDF: %w", lastErr)
		}
		return "", fmt.Errorf("no text extracted from PDF")
	}
	return sb.String(), nil
}
