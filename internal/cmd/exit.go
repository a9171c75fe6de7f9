package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	errwrap "github.com/namelens/nutrilens/internal/errors"
	"github.com/namelens/nutrilens/internal/metrics"
	"github.com/namelens/nutrilens/internal/observability"
)

// ExitWithCode exits the program with a semantic foundry exit code and logs the error.
// logger may be nil for failures before logger initialization.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger != nil {
		fields := []zap.Field{
			zap.Int("exit_code", info.Code),
			zap.String("exit_name", info.Name),
			zap.String("exit_category", info.Category),
		}

		if envelope, ok := err.(*errors.ErrorEnvelope); ok {
			fields = append(fields,
				zap.String("error_code", envelope.Code),
				zap.String("correlation_id", envelope.CorrelationID),
			)
			if envelope.Context != nil {
				fields = append(fields, zap.Any("error_context", envelope.Context))
			}
			if envelope.Original != nil {
				if originalErr, ok := envelope.Original.(error); ok {
					err = originalErr
				}
			}
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Error(msg, fields...)
	} else {
		if envelope, ok := err.(*errors.ErrorEnvelope); ok {
			fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %v (correlation: %s)\n",
				msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
		}
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	}

	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

// ExitWithError converts a command failure into an envelope, prints its
// user-facing message and hint, and exits with the mapped code.
func ExitWithError(ctx context.Context, err error) {
	envelope := errwrap.FromError(ctx, err)
	metrics.RecordError(envelope.Code)

	if hint := errwrap.Hint(envelope); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	ExitWithCode(observability.CLILogger, errwrap.ExitCode(envelope), envelope.Message, envelope)
}

func newCorrelationID() string {
	return uuid.New().String()
}
