// Package errors models RFC 7807 Problem Details exchanged with the storefront API.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// ProblemDetail represents an RFC 7807 Problem Details body.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type,omitempty"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code for this occurrence.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// Common problem types as URI references.
const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeBadRequest   = "/problems/bad-request"
)

var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	// ErrValidation indicates the request failed validation.
	ErrValidation = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	// ErrInternal indicates an unexpected server error.
	ErrInternal = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
	// ErrUnauthorized indicates missing or invalid authentication.
	ErrUnauthorized = ProblemDetail{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized}
)

// Decode reads an error body. Problem documents are taken as-is; plain
// {"message": ...} or {"error": ...} bodies fill Detail. Status falls back to
// the HTTP status and Title to its reason phrase.
func Decode(body []byte, status int) ProblemDetail {
	var problem ProblemDetail
	if gjson.ValidBytes(body) && gjson.ParseBytes(body).IsObject() {
		_ = json.Unmarshal(body, &problem)
		if problem.Detail == "" {
			for _, field := range []string{"message", "error"} {
				if v := gjson.GetBytes(body, field); v.Type == gjson.String {
					problem.Detail = strings.TrimSpace(v.String())
					break
				}
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		problem.Detail = text
	}
	if problem.Status == 0 {
		problem.Status = status
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	return problem
}
