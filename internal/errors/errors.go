// Package errors converts nutrilens failures into gofulmen error envelopes
// and semantic exit codes at the CLI edge.
package errors

import (
	"context"
	stderrors "errors"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"

	"github.com/namelens/nutrilens/internal/core/fdc"
)

// Envelope codes.
const (
	CodeRateLimited         = "RATE_LIMITED"
	CodeUpstreamRateLimited = "UPSTREAM_RATE_LIMITED"
	CodeInvalidCredential   = "INVALID_CREDENTIAL"
	CodeMissingCredential   = "MISSING_CREDENTIAL"
	CodeExternalService     = "EXTERNAL_SERVICE_ERROR"
	CodeConnection          = "CONNECTION_ERROR"
	CodeTimeout             = "TIMEOUT"
	CodeDataProcessing      = "DATA_PROCESSING_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDatabase            = "DATABASE_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

type correlationKey struct{}

// WithCorrelationID stores a correlation ID on ctx for later envelopes.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the ID stored on ctx, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

// WrapDatabaseError wraps a preference store failure.
func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeDatabase, message, err, true)
}

// WrapConfigInvalid wraps a configuration failure.
func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, message, err, true)
}

// FromError classifies err into an envelope. Request errors keep their
// user-facing message; sentinel errors map to input or credential codes.
func FromError(ctx context.Context, err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return EnsureCorrelationID(env, ctx)
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return EnsureCorrelationID(envelope, ctx)
	}

	switch {
	case stderrors.Is(err, fdc.ErrMissingCredential):
		return wrap(ctx, CodeMissingCredential, "No API key configured. Run 'nutrilens config set-key <key>'", err, false)
	case stderrors.Is(err, fdc.ErrFoodNotFound), stderrors.Is(err, fdc.ErrNoNDBMatch):
		return wrap(ctx, CodeNotFound, rootMessage(err), err, false)
	case stderrors.Is(err, fdc.ErrEmptyQuery), stderrors.Is(err, fdc.ErrNoDataTypes):
		return wrap(ctx, CodeInvalidInput, rootMessage(err), err, false)
	}

	var reqErr *fdc.RequestError
	if stderrors.As(err, &reqErr) && reqErr != nil {
		env := wrap(ctx, codeForKind(reqErr.Kind), reqErr.UserMessage(), err, severeKind(reqErr.Kind))
		details := map[string]interface{}{"kind": string(reqErr.Kind)}
		if reqErr.Status != 0 {
			details["http_status"] = reqErr.Status
		}
		if reqErr.URL != "" {
			details["url"] = reqErr.URL
		}
		if updated, updateErr := env.WithContext(details); updateErr == nil {
			env = updated
		}
		return env
	}

	return wrap(ctx, CodeInternal, err.Error(), err, true)
}

// ExitCode resolves the foundry exit code for an envelope.
func ExitCode(envelope *errors.ErrorEnvelope) foundry.ExitCode {
	if envelope == nil {
		return foundry.ExitFailure
	}
	switch envelope.Code {
	case CodeMissingCredential, CodeInvalidCredential, CodeConfigInvalid:
		return foundry.ExitConfigInvalid
	case CodeRateLimited, CodeUpstreamRateLimited, CodeExternalService, CodeConnection, CodeTimeout:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}

// Hint returns a follow-up suggestion for codes the user can fix locally.
func Hint(envelope *errors.ErrorEnvelope) string {
	if envelope == nil {
		return ""
	}
	switch envelope.Code {
	case CodeInvalidCredential, CodeMissingCredential:
		return "Check your key with 'nutrilens config test' or replace it with 'nutrilens config set-key <key>'"
	case CodeRateLimited, CodeUpstreamRateLimited:
		return "See 'nutrilens usage show' for the current quota window"
	default:
		return ""
	}
}

// EnsureCorrelationID attaches a correlation ID from ctx, or a generated one.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}
	if envelope.CorrelationID != "" {
		return envelope
	}

	correlationID := CorrelationID(ctx)
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(correlationID)
}

func wrap(ctx context.Context, code, message string, err error, severe bool) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	correlationID := CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	envelope = envelope.WithCorrelationID(correlationID)
	envelope = envelope.WithTraceID(correlationID)
	if severe {
		envelope, _ = envelope.WithSeverity(errors.SeverityHigh)
	} else {
		envelope, _ = envelope.WithSeverity(errors.SeverityMedium)
	}
	if err != nil {
		envelope.Original = err
		if updated, updateErr := envelope.WithContext(map[string]interface{}{
			"wrapped_error": err.Error(),
		}); updateErr == nil {
			envelope = updated
		}
	}
	return envelope
}

func codeForKind(kind fdc.ErrorKind) string {
	switch kind {
	case fdc.KindRateLimited:
		return CodeRateLimited
	case fdc.KindUpstreamRateLimited:
		return CodeUpstreamRateLimited
	case fdc.KindInvalidCredential:
		return CodeInvalidCredential
	case fdc.KindConnection:
		return CodeConnection
	case fdc.KindTimeout:
		return CodeTimeout
	case fdc.KindParse:
		return CodeDataProcessing
	default:
		return CodeExternalService
	}
}

func severeKind(kind fdc.ErrorKind) bool {
	switch kind {
	case fdc.KindRateLimited, fdc.KindUpstreamRateLimited, fdc.KindInvalidCredential:
		return false
	default:
		return true
	}
}

// rootMessage returns the innermost message of a sentinel-wrapped chain.
func rootMessage(err error) string {
	for _, sentinel := range []error{fdc.ErrFoodNotFound, fdc.ErrNoNDBMatch, fdc.ErrEmptyQuery, fdc.ErrNoDataTypes} {
		if stderrors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
