package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped only when the envelope structure itself changes.
// Clients check it before parsing anything else.
const envelopeVersion = 1

// successEnvelope wraps every 2xx response body.
type successEnvelope struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// errorEnvelope wraps every error response body. Error repeats the message
// so simple clients can show something without understanding codes.
type errorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps all response bodies in a versioned envelope.
// Registered as a huma response transformer on the API config.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return errorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	return successEnvelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
