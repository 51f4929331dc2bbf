package types

import (
	"github.com/go-playground/validator/v10"
)

// CreatePodcastRequest is the body of a podcast creation request.
type CreatePodcastRequest struct {
	URL string `json:"url" validate:"required"`
}

// Validate validates the CreatePodcastRequest using the validator.
// URL syntax is checked during acquisition so that malformed URLs surface as
// acquisition errors.
func (r *CreatePodcastRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
