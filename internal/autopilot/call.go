package autopilot

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/metrics"
)

// callPolicy bounds every collaborator call with a per-attempt timeout and a
// small number of retries.
type callPolicy struct {
	timeout time.Duration
	retries int
	backoff time.Duration
}

// call runs fn under the policy. retryable decides which failures earn another
// attempt; permanent errors and caller cancellation never do. A failure that
// survives the policy comes back as a CollaboratorFailure.
func call[R any](ctx context.Context, p callPolicy, collaborator string, retryable func(error) bool, fn func(context.Context) (R, error)) (R, error) {
	builder := retrypolicy.NewBuilder[R]().WithMaxRetries(p.retries)
	if p.backoff > 0 {
		builder = builder.WithBackoff(p.backoff, 4*p.backoff)
	}
	retry := builder.
		HandleIf(func(_ R, err error) bool {
			if err == nil || ctx.Err() != nil || appErrors.IsPermanent(err) {
				return false
			}
			return retryable == nil || retryable(err)
		}).
		ReturnLastFailure().
		Build()

	result, err := failsafe.With[R](retry).WithContext(ctx).Get(func() (R, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return fn(attemptCtx)
	})
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(collaborator).Inc()
		var zero R
		return zero, appErrors.NewCollaboratorFailure(collaborator, err)
	}
	return result, nil
}
