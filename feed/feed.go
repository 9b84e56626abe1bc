// Package feed simulates the on-chain transaction that drops food on the
// board. Requests are validated, delayed like a network round trip and then
// succeed at a configurable rate.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"kardium-snake/game/types"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

const (
	DefaultDelay       = 2 * time.Second
	DefaultSuccessRate = 0.8
)

var (
	ErrMissingField      = errors.New("transaction hash, recipient and amount are required")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Request is what the player fills in before sending
type Request struct {
	TxHash    string `json:"txHash"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.TxHash) == "" || strings.TrimSpace(r.Recipient) == "" || strings.TrimSpace(r.Amount) == "" {
		return ErrMissingField
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Amount), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return ErrInvalidAmount
	}
	return nil
}

// Receipt describes a confirmed transaction and the food it produced
type Receipt struct {
	ID     string      `json:"id"`
	TxHash string      `json:"txHash"`
	Cell   types.Point `json:"cell"`
	At     time.Time   `json:"at"`
}

// Granter adds one food cell to the running session
type Granter interface {
	AddFood() (types.Point, error)
}

type Options struct {
	Delay       time.Duration
	SuccessRate float64
	Seed        uint64
	Logger      *log.Logger
}

// DefaultOptions mirrors the demo page: two seconds, four in five succeed
func DefaultOptions() Options {
	return Options{Delay: DefaultDelay, SuccessRate: DefaultSuccessRate}
}

type Feeder struct {
	granter Granter
	delay   time.Duration
	rate    float64
	logger  *log.Logger

	mu  sync.Mutex
	rng *rand.Rand

	wg sync.WaitGroup
}

func NewFeeder(granter Granter, opts Options) *Feeder {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[feed] ", log.LstdFlags)
	}
	return &Feeder{
		granter: granter,
		delay:   max(opts.Delay, 0),
		rate:    min(max(opts.SuccessRate, 0), 1),
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Execute validates req, waits out the simulated confirmation time and on
// success asks the granter for one food cell. Nothing changes on failure.
func (f *Feeder) Execute(ctx context.Context, req Request) (Receipt, error) {
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case <-timer.C:
	}

	if !f.roll() {
		f.logger.Printf("transaction %s rejected", req.TxHash)
		return Receipt{}, ErrTransactionFailed
	}

	cell, err := f.granter.AddFood()
	if err != nil {
		return Receipt{}, fmt.Errorf("transaction confirmed but no food placed: %w", err)
	}

	rc := Receipt{
		ID:     uuid.NewString(),
		TxHash: req.TxHash,
		Cell:   cell,
		At:     time.Now(),
	}
	f.logger.Printf("transaction %s confirmed, food at (%d,%d)", req.TxHash, cell.X, cell.Y)
	return rc, nil
}

// Submit runs Execute on its own goroutine and reports through done
func (f *Feeder) Submit(ctx context.Context, req Request, done func(Receipt, error)) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		rc, err := f.Execute(ctx, req)
		if done != nil {
			done(rc, err)
		}
	}()
}

// Wait blocks until every submitted transaction has finished
func (f *Feeder) Wait() {
	f.wg.Wait()
}

func (f *Feeder) roll() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.rate
}
