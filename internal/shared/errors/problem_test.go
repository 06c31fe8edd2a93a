package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		want   ProblemDetail
	}{
		{
			name:   "problem document",
			body:   `{"type":"/problems/not-found","title":"Resource Not Found","status":404,"detail":"transaction 9 not found"}`,
			status: http.StatusNotFound,
			want:   ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: 404, Detail: "transaction 9 not found"},
		},
		{
			name:   "message body",
			body:   `{"message":" insufficient stock "}`,
			status: http.StatusBadRequest,
			want:   ProblemDetail{Title: "Bad Request", Status: 400, Detail: "insufficient stock"},
		},
		{
			name:   "error body",
			body:   `{"error":"token expired"}`,
			status: http.StatusUnauthorized,
			want:   ProblemDetail{Title: "Unauthorized", Status: 401, Detail: "token expired"},
		},
		{
			name:   "plain text",
			body:   "upstream timeout",
			status: http.StatusBadGateway,
			want:   ProblemDetail{Title: "Bad Gateway", Status: 502, Detail: "upstream timeout"},
		},
		{
			name:   "empty",
			status: http.StatusInternalServerError,
			want:   ProblemDetail{Title: "Internal Server Error", Status: 500},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decode([]byte(tc.body), tc.status))
		})
	}
}

func TestProblemDetail_Error(t *testing.T) {
	assert.Equal(t, "Bad Request: missing name", ErrBadRequest.WithDetail("missing name").Error())
	assert.Equal(t, "Unauthorized", ErrUnauthorized.Error())
}
