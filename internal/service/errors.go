// Package service exposes the ledger over Connect RPC.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/period"
)

const dateLayout = "2006-01-02"

var errNoUser = errors.New("no authenticated user")

// codeOf picks the Connect code for a ledger error.
func codeOf(err error) connect.Code {
	var (
		validation *apperr.ValidationError
		exceeded   *apperr.AllocationExceededError
		closed     *apperr.ClosedPeriodError
		negative   *apperr.NegativeQuantityError
		notFound   *apperr.NotFoundError
		lookup     *apperr.LookupError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &exceeded):
		return connect.CodeInvalidArgument
	case errors.As(err, &closed), errors.As(err, &negative):
		return connect.CodeFailedPrecondition
	case errors.As(err, &notFound):
		return connect.CodeNotFound
	case errors.As(err, &lookup), errors.Is(err, ledger.ErrNoPriceLookup):
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	}
	return connect.CodeInternal
}

// fail logs err and converts it to a Connect error. Internal failures hide
// their message from the caller.
func fail(op string, userID string, err error) error {
	code := codeOf(err)
	switch {
	case code == connect.CodeInternal:
		slog.Error(op+" failed", "user_id", userID, "error", err)
		return connect.NewError(code, errors.New("internal error"))
	case apperr.IsUserError(err):
		slog.Warn(op+" rejected", "user_id", userID, "code", code, "error", err)
	default:
		slog.Warn(op+" unavailable", "user_id", userID, "code", code, "error", err)
	}
	return connect.NewError(code, err)
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errNoUser)
	}
	return id, nil
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperr.Invalid(field, "is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "must be YYYY-MM-DD")
	}
	return t, nil
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// monthOr parses s, defaulting to fallback when s is empty.
func monthOr(s string, fallback period.Month) (period.Month, error) {
	if s == "" {
		return fallback, nil
	}
	m, err := period.Parse(s)
	if err != nil {
		return period.Month{}, apperr.Invalid("month", "must be YYYY-MM")
	}
	return m, nil
}
