package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/podcast-planner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"abs link", "https://arxiv.org/abs/2106.14834", "2106.14834"},
		{"pdf link", "https://arxiv.org/pdf/2106.14834", "2106.14834"},
		{"pdf with extension", "https://arxiv.org/pdf/2106.14834.pdf", "2106.14834"},
		{"versioned", "https://arxiv.org/abs/2106.14834v3", "2106.14834v3"},
		{"five digit", "http://export.arxiv.org/abs/2401.01234", "2401.01234"},
		{"old style", "https://arxiv.org/abs/hep-th/9901001", "hep-th/9901001"},
		{"old style with subject class", "https://arxiv.org/abs/math.GT/0309136v1", "math.GT/0309136v1"},
		{"trailing slash", "https://arxiv.org/abs/2106.14834/", "2106.14834"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParseID_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"not-a-url",
		"https://arxiv.org/list/cs.LG/recent",
		"ftp//broken",
		"https://arxiv.org/abs/12345.678901",
		"https://arxiv.org/abs/2106.148345",
		"https://arxiv.org/abs/2106.14834v",
		"https://arxiv.org/abs/x2106.14834",
		"https://arxiv.org/abs/hep-th/99010011",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseID(raw)
			require.Error(t, err)

			var acqErr *AcquisitionError
			require.True(t, errors.As(err, &acqErr))
			assert.Equal(t, StageParse, acqErr.Stage)
		})
	}
}

func TestParseAbstractPage(t *testing.T) {
	page, err := ParseAbstractPage(absPageHTML)
	require.NoError(t, err)
	assert.Equal(t, "A Study of Attention", page.Title)
	assert.Equal(t, "We study attention.\nIt is all you need.", page.Abstract)
}

func TestParseAbstractPage_Missing(t *testing.T) {
	page, err := ParseAbstractPage("<html><body><p>Nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, page.Abstract)
	assert.Empty(t, page.Title)
}

func newArxivServer(t *testing.T, pdfBody []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /abs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "2106.14834" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(absPageHTML))
	})
	mux.HandleFunc("GET /pdf/{id}", func(w http.ResponseWriter, r *http.Request) {
		if pdfBody == nil || r.PathValue("id") != "2106.14834" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBody)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAcquire_AbstractMode(t *testing.T) {
	server := newArxivServer(t, nil)
	acq := NewAcquirer(Config{AbsBaseURL: server.URL, Mode: types.SourceModeAbstract})

	src, err := acq.Acquire(context.Background(), "https://arxiv.org/abs/2106.14834")
	require.NoError(t, err)
	assert.Equal(t, "2106.14834", src.ID)
	assert.Equal(t, "A Study of Attention", src.Title)
	assert.Contains(t, src.Text, "We study attention.")
	assert.Equal(t, types.SourceModeAbstract, src.Mode)
	assert.Empty(t, src.Path)
	assert.Equal(t, ContentHash(src.Text), src.Hash)
	assert.NotEmpty(t, src.RetrievedAt)
}

func TestAcquire_AbstractNotFound(t *testing.T) {
	server := newArxivServer(t, nil)
	acq := NewAcquirer(Config{AbsBaseURL: server.URL, Mode: types.SourceModeAbstract})

	_, err := acq.Acquire(context.Background(), "https://arxiv.org/abs/9999.99999")
	require.Error(t, err)

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, StageFetch, acqErr.Stage)
	assert.Contains(t, err.Error(), "404")
}

func TestAcquire_PDFMode(t *testing.T) {
	server := newArxivServer(t, buildPDF("Page one text", "Page two text", "Page three text"))
	dir := t.TempDir()
	acq := NewAcquirer(Config{
		AbsBaseURL:  server.URL,
		PDFBaseURL:  server.URL,
		DownloadDir: dir,
		MaxPages:    2,
		Mode:        types.SourceModePDF,
	})

	src, err := acq.Acquire(context.Background(), "https://arxiv.org/pdf/2106.14834")
	require.NoError(t, err)
	assert.Equal(t, "A Study of Attention", src.Title)
	assert.Contains(t, src.Text, "Page one text")
	assert.Contains(t, src.Text, "Page two text")
	assert.NotContains(t, src.Text, "Page three text")

	require.NotEmpty(t, src.Path)
	assert.Equal(t, dir, filepath.Dir(src.Path))
	_, statErr := os.Stat(src.Path)
	require.NoError(t, statErr)

	path := src.Path
	acq.Cleanup(src)
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, src.Path)

	// second call is a no-op
	acq.Cleanup(src)
}

func TestAcquire_PDFNotAPDF(t *testing.T) {
	server := newArxivServer(t, []byte("<html>rate limited</html>"))
	dir := t.TempDir()
	acq := NewAcquirer(Config{AbsBaseURL: server.URL, PDFBaseURL: server.URL, DownloadDir: dir})

	_, err := acq.Acquire(context.Background(), "https://arxiv.org/abs/2106.14834")
	require.Error(t, err)

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, StageExtract, acqErr.Stage)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "failed acquisition should not leave files behind")
}

func TestAcquire_PDFDownloadFails(t *testing.T) {
	server := newArxivServer(t, nil)
	dir := t.TempDir()
	acq := NewAcquirer(Config{AbsBaseURL: server.URL, PDFBaseURL: server.URL, DownloadDir: dir})

	_, err := acq.Acquire(context.Background(), "https://arxiv.org/abs/2106.14834")
	require.Error(t, err)

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, StageFetch, acqErr.Stage)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestAcquire_TruncatesText(t *testing.T) {
	server := newArxivServer(t, nil)
	acq := NewAcquirer(Config{AbsBaseURL: server.URL, Mode: types.SourceModeAbstract, MaxChars: 10})

	src, err := acq.Acquire(context.Background(), "https://arxiv.org/abs/2106.14834")
	require.NoError(t, err)
	assert.Equal(t, "We study a", src.Text)
}

func TestAcquire_InvalidURLMakesNoRequests(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
	}))
	defer server.Close()

	acq := NewAcquirer(Config{AbsBaseURL: server.URL, PDFBaseURL: server.URL})
	_, err := acq.Acquire(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Equal(t, 0, hits)
}

func TestExtractPDFText_Pages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF("Alpha", "Beta"), 0644))

	text, err := ExtractPDFText(path, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "Alpha")
	assert.Contains(t, text, "Beta")

	text, err = ExtractPDFText(path, 1)
	require.NoError(t, err)
	assert.Contains(t, text, "Alpha")
	assert.NotContains(t, text, "Beta")
}

func TestExtractPDFText_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, err := ExtractPDFText(path, 5)
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	input := "Atten-\ntion   is\r\nall\t\tyou need\n\n\n\n\nSection 2"
	assert.Equal(t, "Attention is\nall you need\n\nSection 2", CleanText(input))
	assert.Empty(t, CleanText(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hello", Truncate("hello", 0))
	assert.Equal(t, "hi", Truncate("hi", 10))
	assert.Equal(t, 3, len([]rune(Truncate(strings.Repeat("é", 10), 3))))
}

func TestFileSafeID(t *testing.T) {
	assert.Equal(t, "hep-th_9901001", FileSafeID("hep-th/9901001"))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(""))
	assert.Len(t, ContentHash("attention"), 64)
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}

func TestStamp(t *testing.T) {
	src := &types.SourceContent{Text: "We study attention."}
	stamp(src, time.Date(2024, 6, 1, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600)))
	assert.Equal(t, "2024-06-01T07:30:00Z", src.RetrievedAt)
	assert.Equal(t, ContentHash("We study attention."), src.Hash)
}
