// Package arxiv acquires source text for an arXiv paper, either from its
// abstract page or from the first pages of its PDF.
package arxiv

import "fmt"

// Acquisition stages reported in AcquisitionError.
const (
	StageParse   = "parse"
	StageFetch   = "fetch"
	StageExtract = "extract"
)

// AcquisitionError is returned when the source URL is unusable or its content
// cannot be retrieved. It is a client-side failure: no generation is attempted.
type AcquisitionError struct {
	Stage   string
	URL     string
	Message string
	Cause   error
}

func (e *AcquisitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("acquisition error (%s) for %q: %s: %v", e.Stage, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("acquisition error (%s) for %q: %s", e.Stage, e.URL, e.Message)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Cause
}
