package types

import "github.com/javokhirdev/newsline-backend/pkg/pagination"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ListEnvelope wraps paged collections with their paging metadata.
type ListEnvelope struct {
	Data any             `json:"data"`
	Meta pagination.Meta `json:"meta"`
}
