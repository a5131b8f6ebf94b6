package graph

import (
	"context"
	"errors"

	"github.com/dalemusser/usersvc/internal/app/system/requestid"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"go.uber.org/zap"
)

// Error codes reported in extensions.code.
const (
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeBadSecret           = "BAD_SECRET"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

// codedError is a resolver error the GraphQL executor reports with
// extensions.code set.
type codedError struct {
	code    string
	message string
}

func (e *codedError) Error() string { return e.message }

func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

var codes = []struct {
	target error
	code   string
}{
	{domainerrors.ErrNotAuthenticated, CodeUnauthenticated},
	{domainerrors.ErrForbidden, CodeForbidden},
	{domainerrors.ErrBadSecret, CodeBadSecret},
	{domainerrors.ErrValidation, CodeValidationFailed},
	{domainerrors.ErrNotFound, CodeNotFound},
	{domainerrors.ErrUpstreamUnavailable, CodeUpstreamUnavailable},
}

// Code returns the extensions code for err.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return CodeInternal
}

// fail converts an operation error into what the client sees. Internal
// errors are logged and replaced by a generic message.
func (r *Resolver) fail(ctx context.Context, op string, err error) error {
	code := Code(err)
	if code != CodeInternal {
		return &codedError{code: code, message: err.Error()}
	}
	r.log.Error("graphql operation failed",
		zap.String("operation", op),
		zap.String("request_id", requestid.From(ctx)),
		zap.Error(err),
	)
	return &codedError{code: CodeInternal, message: "internal error"}
}

// panicLogger routes executor panics to zap.
type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.Error("graphql resolver panic",
		zap.Any("panic", value),
		zap.String("request_id", requestid.From(ctx)),
		zap.Stack("stack"),
	)
}
