package smsgw

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"meetremind/internal/dispatch"
	"meetremind/internal/observability"
)

// Sender is the slice of Client the transport needs; tests substitute a fake.
type Sender interface {
	SendSMS(ctx context.Context, req SendRequest) (SendResponse, int, []byte, error)
}

// Transport adapts the gateway client to the dispatcher. Each submit is
// attempted once; the rate limiter smooths bursts and the breaker sheds
// load when the gateway is struggling.
type Transport struct {
	Sender  Sender
	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker
}

func (t *Transport) Send(ctx context.Context, msg dispatch.Outbound) error {
	if t.Limiter != nil {
		waitCtx, cancelWait := context.WithTimeout(ctx, 2*time.Second)
		err := t.Limiter.Wait(waitCtx)
		cancelWait()
		if err != nil {
			observability.SMSSubmits.WithLabelValues("rate_limited_local", "0").Inc()
			return err
		}
	}

	start := time.Now()
	resAny, err := t.executeWithBreaker(ctx, msg)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.SMSSubmits.WithLabelValues("cb_open", "0").Inc()
		return err
	}

	if err != nil {
		var gce gatewayCallError
		httpStatus := 0
		if errors.As(err, &gce) {
			httpStatus = gce.httpStatus
		}
		observability.SMSSubmits.WithLabelValues("error", strconv.Itoa(httpStatus)).Inc()
		return err
	}

	r := resAny.(sendResult)
	observability.SMSSubmits.WithLabelValues("ok", strconv.Itoa(r.httpStatus)).Inc()
	observability.SubmitLatency.Observe(time.Since(start).Seconds())
	return nil
}

func (t *Transport) executeWithBreaker(ctx context.Context, msg dispatch.Outbound) (any, error) {
	call := func() (any, error) {
		reqCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
		defer cancel()

		resp, httpStatus, raw, callErr := t.Sender.SendSMS(reqCtx, SendRequest{
			To:        msg.Phone,
			Body:      msg.Body,
			Token:     msg.ContactID,
			Remaining: msg.Remaining,
		})
		if callErr != nil {
			return nil, gatewayCallError{err: callErr, httpStatus: httpStatus, raw: raw}
		}
		return sendResult{resp: resp, httpStatus: httpStatus, raw: raw}, nil
	}

	if t.Breaker == nil {
		return call()
	}
	return t.Breaker.Execute(call)
}

type sendResult struct {
	resp       SendResponse
	httpStatus int
	raw        []byte
}

type gatewayCallError struct {
	err        error
	httpStatus int
	raw        []byte
}

func (e gatewayCallError) Error() string { return e.err.Error() }
func (e gatewayCallError) Unwrap() error { return e.err }
