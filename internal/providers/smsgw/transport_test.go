package smsgw

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"

	"meetremind/internal/dispatch"
)

type fakeSender struct {
	last SendRequest
	err  error
}

func (f *fakeSender) SendSMS(ctx context.Context, req SendRequest) (SendResponse, int, []byte, error) {
	f.last = req
	if f.err != nil {
		return SendResponse{}, 500, nil, f.err
	}
	return SendResponse{ID: "msg_1", Status: "queued"}, 201, nil, nil
}

func TestTransportMapsOutbound(t *testing.T) {
	sender := &fakeSender{}
	tr := &Transport{Sender: sender}

	err := tr.Send(context.Background(), dispatch.Outbound{
		ContactID: 7,
		Phone:     "+15551234567",
		Body:      "see you at 10:00",
		Remaining: 3,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sender.last.To != "+15551234567" || sender.last.Token != 7 || sender.last.Remaining != 3 {
		t.Fatalf("request = %+v", sender.last)
	}
}

func TestTransportPropagatesSendError(t *testing.T) {
	want := errors.New("gateway send failed")
	tr := &Transport{Sender: &fakeSender{err: want}}

	err := tr.Send(context.Background(), dispatch.Outbound{ContactID: 1})
	if err == nil || !errors.Is(err, want) {
		t.Fatalf("err = %v, want wrapped %v", err, want)
	}
}

func TestTransportBreakerOpens(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	tr := &Transport{
		Sender: sender,
		Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "test",
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 2
			},
		}),
	}

	for i := 0; i < 2; i++ {
		if err := tr.Send(context.Background(), dispatch.Outbound{ContactID: 1}); err == nil {
			t.Fatal("want error while failing")
		}
	}
	err := tr.Send(context.Background(), dispatch.Outbound{ContactID: 1})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
}
