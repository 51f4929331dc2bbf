package arxiv

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/podcast-planner/internal/fetch"
	"github.com/jonathan/podcast-planner/internal/types"
)

// Defaults for Config.
const (
	DefaultBaseURL  = "https://arxiv.org"
	DefaultMaxPages = 5
	DefaultMaxChars = 60000
)

// Config controls where and how paper content is retrieved.
type Config struct {
	// AbsBaseURL serves /abs/{id}; PDFBaseURL serves /pdf/{id}.
	AbsBaseURL string
	PDFBaseURL string
	// DownloadDir holds transient PDF files. Empty means os.TempDir().
	DownloadDir string
	MaxPages    int
	MaxChars    int
	Mode        types.SourceMode
	// UseBrowser re-renders the abstract page with a headless browser when
	// the plain HTTP response has no abstract.
	UseBrowser bool
	Verbose    bool
	Fetch      *fetch.Options
}

// DefaultConfig returns a PDF-mode configuration against arxiv.org.
func DefaultConfig() Config {
	return Config{
		AbsBaseURL: DefaultBaseURL,
		PDFBaseURL: DefaultBaseURL,
		MaxPages:   DefaultMaxPages,
		MaxChars:   DefaultMaxChars,
		Mode:       types.SourceModePDF,
	}
}

// Acquirer turns an arXiv URL into SourceContent.
type Acquirer struct {
	cfg Config
}

// NewAcquirer fills unset fields of cfg from DefaultConfig.
func NewAcquirer(cfg Config) *Acquirer {
	def := DefaultConfig()
	if cfg.AbsBaseURL == "" {
		cfg.AbsBaseURL = def.AbsBaseURL
	}
	if cfg.PDFBaseURL == "" {
		cfg.PDFBaseURL = def.PDFBaseURL
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	cfg.AbsBaseURL = strings.TrimRight(cfg.AbsBaseURL, "/")
	cfg.PDFBaseURL = strings.TrimRight(cfg.PDFBaseURL, "/")
	return &Acquirer{cfg: cfg}
}

// Mode reports the configured source mode.
func (a *Acquirer) Mode() types.SourceMode {
	return a.cfg.Mode
}

// Acquire resolves rawURL to an arXiv identifier and retrieves its text.
// In PDF mode the returned SourceContent.Path names a temporary file that the
// caller must release with Cleanup.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (*types.SourceContent, error) {
	id, err := ParseID(rawURL)
	if err != nil {
		return nil, err
	}
	if a.cfg.Verbose {
		log.Printf("[arxiv] Resolved %s to %s (mode=%s)", rawURL, id, a.cfg.Mode)
	}

	src := &types.SourceContent{ID: id, URL: rawURL, Mode: a.cfg.Mode}

	switch a.cfg.Mode {
	case types.SourceModeAbstract:
		page, err := a.fetchAbstractPage(ctx, id)
		if err != nil {
			return nil, err
		}
		if page.Abstract == "" {
			return nil, &AcquisitionError{Stage: StageExtract, URL: rawURL, Message: "abstract not found on page"}
		}
		src.Title = page.Title
		src.Text = page.Abstract

	case types.SourceModePDF:
		path, err := a.downloadPDF(ctx, id)
		if err != nil {
			return nil, err
		}
		src.Path = path

		text, err := ExtractPDFText(path, a.cfg.MaxPages)
		if err != nil {
			a.Cleanup(src)
			return nil, &AcquisitionError{Stage: StageExtract, URL: rawURL, Message: "failed to extract PDF text", Cause: err}
		}
		src.Text = CleanText(text)

		// Best-effort title lookup.
		if page, err := a.fetchAbstractPage(ctx, id); err == nil {
			src.Title = page.Title
		} else if a.cfg.Verbose {
			log.Printf("[arxiv] Title lookup failed for %s: %v", id, err)
		}

	default:
		return nil, &AcquisitionError{Stage: StageParse, URL: rawURL, Message: fmt.Sprintf("unsupported source mode %q", a.cfg.Mode)}
	}

	if strings.TrimSpace(src.Text) == "" {
		a.Cleanup(src)
		return nil, &AcquisitionError{Stage: StageExtract, URL: rawURL, Message: "no text content"}
	}
	src.Text = Truncate(src.Text, a.cfg.MaxChars)
	stamp(src, time.Now())

	if a.cfg.Verbose {
		log.Printf("[arxiv] Acquired %d chars for %s", len(src.Text), id)
	}
	return src, nil
}

// Cleanup removes any transient file created by Acquire. Safe to call with a
// nil source or more than once.
func (a *Acquirer) Cleanup(src *types.SourceContent) {
	if src == nil || src.Path == "" {
		return
	}
	if err := os.Remove(src.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("[arxiv] Warning: failed to remove %s: %v", src.Path, err)
	}
	src.Path = ""
}

func (a *Acquirer) downloadPDF(ctx context.Context, id string) (string, error) {
	pdfURL := fmt.Sprintf("%s/pdf/%s", a.cfg.PDFBaseURL, id)

	f, err := os.CreateTemp(a.cfg.DownloadDir, FileSafeID(id)+"-*.pdf")
	if err != nil {
		return "", &AcquisitionError{Stage: StageFetch, URL: pdfURL, Message: "failed to create download file", Cause: err}
	}
	path := f.Name()
	_ = f.Close()

	n, err := fetch.Download(ctx, pdfURL, path, a.cfg.Fetch)
	if err != nil {
		_ = os.Remove(path)
		return "", &AcquisitionError{Stage: StageFetch, URL: pdfURL, Message: "failed to download PDF", Cause: err}
	}
	if a.cfg.Verbose {
		log.Printf("[arxiv] Downloaded %d bytes to %s", n, path)
	}
	return path, nil
}

// AbstractPage is the metadata scraped from an /abs/ page.
type AbstractPage struct {
	Title    string
	Abstract string
}

func (a *Acquirer) fetchAbstractPage(ctx context.Context, id string) (*AbstractPage, error) {
	absURL := fmt.Sprintf("%s/abs/%s", a.cfg.AbsBaseURL, id)

	result, err := fetch.URL(ctx, absURL, a.cfg.Fetch)
	if err != nil {
		return nil, &AcquisitionError{Stage: StageFetch, URL: absURL, Message: "failed to fetch abstract page", Cause: err}
	}

	page, err := ParseAbstractPage(result.HTML)
	if err != nil {
		return nil, &AcquisitionError{Stage: StageExtract, URL: absURL, Message: "failed to parse abstract page", Cause: err}
	}

	if page.Abstract == "" && a.cfg.UseBrowser {
		if a.cfg.Verbose {
			log.Printf("[arxiv] No abstract in HTTP response, falling back to browser rendering")
		}
		html, browserErr := fetch.BrowserSimple(ctx, absURL, a.cfg.Verbose)
		if browserErr == nil {
			if rendered, parseErr := ParseAbstractPage(html); parseErr == nil {
				page = rendered
			}
		} else if a.cfg.Verbose {
			log.Printf("[arxiv] Browser rendering failed: %v", browserErr)
		}
	}

	return page, nil
}

// ParseAbstractPage scrapes the title and abstract from an arXiv /abs/ page,
// dropping the "Title:" and "Abstract:" descriptors.
func ParseAbstractPage(html string) (*AbstractPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(".descriptor").Remove()

	title := strings.TrimSpace(doc.Find("h1.title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := strings.TrimSpace(doc.Find("blockquote.abstract").First().Text())
	abstract = strings.TrimSpace(strings.TrimPrefix(abstract, "Abstract:"))

	return &AbstractPage{
		Title:    strings.Join(strings.Fields(title), " "),
		Abstract: fetch.CleanWhitespace(abstract),
	}, nil
}
