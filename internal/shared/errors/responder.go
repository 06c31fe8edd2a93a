package errors

import (
	"github.com/gin-gonic/gin"
)

// Respond writes a ProblemDetail with the problem+json content type.
// It backs the in-process fake storefront API used by tests.
func Respond(c *gin.Context, problem ProblemDetail) {
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// NotFound sends a 404 problem response.
func NotFound(c *gin.Context, detail string) {
	Respond(c, ErrNotFound.WithDetail(detail))
}

// BadRequest sends a 400 problem response.
func BadRequest(c *gin.Context, detail string) {
	Respond(c, ErrBadRequest.WithDetail(detail))
}

// Unauthorized sends a 401 problem response.
func Unauthorized(c *gin.Context, detail string) {
	Respond(c, ErrUnauthorized.WithDetail(detail))
}

// Validation sends a 400 problem response for a semantically invalid request.
func Validation(c *gin.Context, detail string) {
	Respond(c, ErrValidation.WithDetail(detail))
}

// InternalError sends a 500 problem response.
func InternalError(c *gin.Context, detail string) {
	Respond(c, ErrInternal.WithDetail(detail))
}
