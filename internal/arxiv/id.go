package arxiv

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	// 2106.14834, 2106.14834v2, 0704.0001; must be the final path segment
	newStyleID = regexp.MustCompile(`(?:^|/)(\d{4}\.\d{4,5})(v\d+)?$`)
	// hep-th/9901001, math.GT/0309136v1
	oldStyleID = regexp.MustCompile(`(?:^|/)([a-z\-]+(?:\.[A-Z]{2})?/\d{7})(v\d+)?$`)
)

// ParseID validates rawURL and extracts the arXiv identifier from its path.
// Both /abs/ and /pdf/ links are accepted; a trailing version is kept.
func ParseID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validate.Var(rawURL, "required,url"); err != nil {
		return "", &AcquisitionError{Stage: StageParse, URL: rawURL, Message: "not a valid URL", Cause: err}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &AcquisitionError{Stage: StageParse, URL: rawURL, Message: "not a valid URL", Cause: err}
	}

	path := strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), ".pdf")
	if m := newStyleID.FindStringSubmatch(path); m != nil {
		return m[1] + m[2], nil
	}
	if m := oldStyleID.FindStringSubmatch(path); m != nil {
		return m[1] + m[2], nil
	}

	return "", &AcquisitionError{Stage: StageParse, URL: rawURL, Message: "no arXiv identifier in URL path"}
}

// FileSafeID turns an old-style identifier into something usable as a file name.
func FileSafeID(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}
