package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs each RPC once it returns. Rejections the caller
// can fix (bad input, closed periods, missing records, auth) log at Warn,
// other failures at Error, successes at Debug.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx), // empty if auth rejected the call
				"duration_ms", time.Since(start).Milliseconds(),
			}
			level, msg := rpcOutcome(err)
			if err != nil {
				attrs = append(attrs, "code", connect.CodeOf(err).String(), "error", errorText(err))
			}
			slog.Log(ctx, level, msg, attrs...)

			return resp, err
		}
	}
}

func rpcOutcome(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelDebug, "RPC ok"
	case clientCode(connect.CodeOf(err)):
		return slog.LevelWarn, "RPC rejected"
	default:
		return slog.LevelError, "RPC failed"
	}
}

// errorText drops the "code: " prefix connect errors carry.
func errorText(err error) string {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce.Message()
	}
	return err.Error()
}

func clientCode(c connect.Code) bool {
	switch c {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeNotFound,
		connect.CodeUnauthenticated, connect.CodePermissionDenied, connect.CodeAlreadyExists:
		return true
	}
	return false
}
