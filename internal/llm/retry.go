package llm

import (
	"context"
	"time"
)

// RetryPolicy configures bounded retries for backend requests.
// Retries resend the same request unchanged.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy keeps retries disabled; delays apply once enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 0,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Delay returns the backoff before retry attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay << attempt
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Chat calls the provider, replaying retryable failures within the policy budget.
func Chat(ctx context.Context, p Provider, req ChatRequest, policy RetryPolicy) (ChatResponse, error) {
	resp, err := p.Chat(ctx, req)
	if err == nil {
		return resp, nil
	}

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return ChatResponse{}, err
		}

		select {
		case <-ctx.Done():
			return ChatResponse{}, TransportError(p.Name(), ctx.Err())
		case <-time.After(policy.Delay(attempt)):
		}

		resp, err = p.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
	}

	return ChatResponse{}, err
}
