package feed

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"kardium-snake/game/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGranter struct {
	calls int
	err   error
}

func (g *fakeGranter) AddFood() (types.Point, error) {
	g.calls++
	if g.err != nil {
		return types.Point{}, g.err
	}
	return types.Point{X: 3, Y: 4}, nil
}

var validRequest = Request{TxHash: "0xabc", Recipient: "0xdef", Amount: "0.5"}

func newFeeder(g Granter, rate float64, delay time.Duration) *Feeder {
	return NewFeeder(g, Options{
		Delay:       delay,
		SuccessRate: rate,
		Seed:        1,
		Logger:      log.New(io.Discard, "", 0),
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validRequest.Validate())

	for _, req := range []Request{
		{Recipient: "0xdef", Amount: "1"},
		{TxHash: "0xabc", Amount: "1"},
		{TxHash: "0xabc", Recipient: "0xdef", Amount: "   "},
	} {
		assert.ErrorIs(t, req.Validate(), ErrMissingField)
	}

	for _, amount := range []string{"abc", "0", "-1", "Inf", "NaN"} {
		req := validRequest
		req.Amount = amount
		assert.ErrorIs(t, req.Validate(), ErrInvalidAmount, amount)
	}
}

func TestExecuteSuccessAddsFood(t *testing.T) {
	g := &fakeGranter{}
	f := newFeeder(g, 1, 0)

	rc, err := f.Execute(context.Background(), validRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
	assert.Equal(t, types.Point{X: 3, Y: 4}, rc.Cell)
	assert.Equal(t, "0xabc", rc.TxHash)
	assert.NotEmpty(t, rc.ID)
}

func TestExecuteFailureAddsNothing(t *testing.T) {
	g := &fakeGranter{}
	f := newFeeder(g, 0, 0)

	_, err := f.Execute(context.Background(), validRequest)
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.Zero(t, g.calls)
}

func TestExecuteInvalidRequestSkipsGranter(t *testing.T) {
	g := &fakeGranter{}
	f := newFeeder(g, 1, 0)

	_, err := f.Execute(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Zero(t, g.calls)
}

func TestExecuteHonoursCancellation(t *testing.T) {
	g := &fakeGranter{}
	f := newFeeder(g, 1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Execute(ctx, validRequest)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, g.calls)
}

func TestExecuteWrapsGranterError(t *testing.T) {
	refused := errors.New("no running session")
	f := newFeeder(&fakeGranter{err: refused}, 1, 0)

	_, err := f.Execute(context.Background(), validRequest)
	assert.ErrorIs(t, err, refused)
}

func TestSuccessRateIsRoughlyHonoured(t *testing.T) {
	g := &fakeGranter{}
	f := newFeeder(g, DefaultSuccessRate, 0)

	ok := 0
	for i := 0; i < 1000; i++ {
		if _, err := f.Execute(context.Background(), validRequest); err == nil {
			ok++
		}
	}
	assert.InDelta(t, 800, ok, 60)
}

func TestSubmitReportsAsynchronously(t *testing.T) {
	f := newFeeder(&fakeGranter{}, 1, 10*time.Millisecond)
	results := make(chan error, 1)

	f.Submit(context.Background(), validRequest, func(_ Receipt, err error) {
		results <- err
	})
	f.Wait()

	select {
	case err := <-results:
		assert.NoError(t, err)
	default:
		t.Fatal("done callback not called")
	}
}
