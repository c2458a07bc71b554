package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorKind classifies failures that callers are expected to act on.
// Anything without a kind is treated as an internal error.
type errorKind int

const (
	kindInternal errorKind = iota
	kindInvalidArgument
	kindAlreadyExists
	kindNotFound
)

func (k errorKind) String() string {
	switch k {
	case kindInvalidArgument:
		return "invalid_argument"
	case kindAlreadyExists:
		return "already_exists"
	case kindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// coachError carries a kind and a client-safe message. Err is the optional cause.
type coachError struct {
	Kind errorKind
	Msg  string
	Err  error
}

func (e *coachError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *coachError) Unwrap() error { return e.Err }

func invalidArgument(format string, args ...any) error {
	return &coachError{Kind: kindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func alreadyExists(format string, args ...any) error {
	return &coachError{Kind: kindAlreadyExists, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &coachError{Kind: kindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// errorKindOf returns the kind of the first coachError in err's chain.
func errorKindOf(err error) errorKind {
	var ce *coachError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return kindInternal
}

// statusForKind maps an error kind onto the HTTP status returned to clients.
func statusForKind(k errorKind) int {
	switch k {
	case kindInvalidArgument:
		return http.StatusBadRequest
	case kindAlreadyExists:
		return http.StatusConflict
	case kindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with apiError using the kind of err. Internal errors are
// logged and replaced by fallback so driver messages never reach clients.
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	kind := errorKindOf(err)
	if kind == kindInternal {
		h.log.Errorw("[writeError] request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		apiError(c, http.StatusInternalServerError, fallback)
		return
	}
	var ce *coachError
	errors.As(err, &ce)
	apiError(c, statusForKind(kind), ce.Msg)
}
