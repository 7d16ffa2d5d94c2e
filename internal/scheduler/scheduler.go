package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"BidSentinel/internal/currency"
	"BidSentinel/internal/engine"
	"BidSentinel/internal/marketplace"
	"BidSentinel/internal/model"
	"BidSentinel/internal/state"
)

// Options holds the polling cadence and back-off policy.
type Options struct {
	FetchLimit           int
	PollInterval         time.Duration
	PeakPollInterval     time.Duration
	PeakStartHourUTC     int
	PeakEndHourUTC       int
	MaxConsecutiveErrors int
	BackoffBase          time.Duration
	BackoffMax           time.Duration
	DailyCap             int
}

// Notifier is the subset of alerting the scheduler uses.
type Notifier interface {
	BidPlaced(ctx context.Context, rec model.BidRecord)
	DailyCapReached(ctx context.Context, cap int)
	Fatal(ctx context.Context, msg string)
}

// Scheduler drives the single cooperative poll loop: fetch listings, run each
// through the decision engine strictly in fetch order, persist state. Cron
// carries the UTC-midnight daily reset, the hourly checkpoint and the daily
// rate refresh alongside the loop.
type Scheduler struct {
	opts       Options
	client     marketplace.Client
	engine     *engine.Engine
	state      *state.Manager
	normalizer *currency.Normalizer
	notifier   Notifier
	cron       *cron.Cron
	log        zerolog.Logger

	// capAlerted latches the cap alert for the day. Written by the loop
	// goroutine and cleared by the midnight cron goroutine, hence atomic.
	capAlerted atomic.Bool
}

func New(opts Options, client marketplace.Client, eng *engine.Engine, st *state.Manager,
	norm *currency.Normalizer, notif Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		opts:       opts,
		client:     client,
		engine:     eng,
		state:      st,
		normalizer: norm,
		notifier:   notif,
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Run blocks until the context is cancelled or a fatal error surfaces.
// CycleState is persisted before returning in either case.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.registerCron(ctx); err != nil {
		return err
	}
	s.cron.Start()
	defer s.cron.Stop()

	s.refreshRates(ctx)

	for {
		cycleID := uuid.NewString()[:8]
		if err := s.runCycle(ctx, cycleID); err != nil {
			s.persist()
			s.notifier.Fatal(ctx, fmt.Sprintf("bot stopped: %v", err))
			return err
		}

		delay := s.nextDelay(time.Now().UTC())
		s.log.Debug().Dur("delay", delay).Msg("sleeping until next cycle")
		select {
		case <-ctx.Done():
			s.persist()
			return nil
		case <-time.After(delay):
		}
	}
}

func (s *Scheduler) registerCron(ctx context.Context) error {
	// UTC midnight: daily bid counter reset.
	if _, err := s.cron.AddFunc("0 0 0 * * *", func() {
		s.state.ResetDailyIfNeeded()
		s.capAlerted.Store(false)
	}); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}
	// Hourly state checkpoint, so a crash never loses more than an hour.
	if _, err := s.cron.AddFunc("0 0 * * * *", s.persist); err != nil {
		return fmt.Errorf("register checkpoint: %w", err)
	}
	// Daily exchange-rate refresh.
	if _, err := s.cron.AddFunc("0 30 0 * * *", func() { s.refreshRates(ctx) }); err != nil {
		return fmt.Errorf("register rate refresh: %w", err)
	}
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context, cycleID string) error {
	log := s.log.With().Str("cycle", cycleID).Logger()

	listings, err := s.client.FetchActiveListings(ctx, s.opts.FetchLimit)
	if err != nil {
		if errors.Is(err, marketplace.ErrAuth) {
			log.Error().Err(err).Msg("authentication failed, stopping")
			return err
		}
		count := s.state.RecordCycleError()
		log.Warn().Err(err).Int("consecutive_errors", count).Msg("fetch listings failed")
		return nil
	}
	log.Info().Int("listings", len(listings)).Msg("cycle fetched")

	cycleHadTransportError := false
	for i := range listings {
		// Shutdown is checked between listings, never mid-listing.
		select {
		case <-ctx.Done():
			s.persist()
			return nil
		default:
		}

		decision, err := s.engine.ProcessListing(ctx, &listings[i])
		if err != nil {
			log.Error().Err(err).Msg("fatal error during listing processing")
			return err
		}

		switch decision.Outcome {
		case model.OutcomeSubmitted:
			s.notifier.BidPlaced(ctx, model.BidRecord{
				ListingID: decision.ListingID,
				Title:     listings[i].Title,
				Amount:    decision.Amount,
				Currency:  decision.CurrencyCode,
				BidID:     decision.BidID,
				Status:    "success",
				PlacedAt:  time.Now().UTC(),
			})
		case model.OutcomeFailed:
			var te *marketplace.TransportError
			if errors.As(decision.Err, &te) {
				s.state.RecordCycleError()
				cycleHadTransportError = true
			}
		case model.OutcomeRejected:
			if decision.Reason == model.ReasonDailyLimitReached && s.capAlerted.CompareAndSwap(false, true) {
				s.notifier.DailyCapReached(ctx, s.opts.DailyCap)
			}
		}
	}

	if !cycleHadTransportError {
		s.state.ResetErrors()
	}
	s.persist()
	return nil
}

// nextDelay picks the polling interval for the current UTC hour, switching to
// the progressive back-off ladder once the consecutive error threshold is hit.
func (s *Scheduler) nextDelay(now time.Time) time.Duration {
	if n := s.state.ConsecutiveErrors(); s.opts.MaxConsecutiveErrors > 0 && n >= s.opts.MaxConsecutiveErrors {
		backoff := time.Duration(n-s.opts.MaxConsecutiveErrors+1) * s.opts.BackoffBase
		if backoff > s.opts.BackoffMax {
			backoff = s.opts.BackoffMax
		}
		s.log.Warn().Int("consecutive_errors", n).Dur("backoff", backoff).
			Msg("error threshold reached, backing off")
		return backoff
	}

	hour := now.Hour()
	start, end := s.opts.PeakStartHourUTC, s.opts.PeakEndHourUTC
	inPeak := hour >= start && hour < end
	if start > end {
		// Peak window wraps UTC midnight, e.g. 22..4.
		inPeak = hour >= start || hour < end
	}
	if inPeak {
		return s.opts.PeakPollInterval
	}
	return s.opts.PollInterval
}

func (s *Scheduler) refreshRates(ctx context.Context) {
	rates, err := s.client.FetchCurrencyRates(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("currency rate refresh failed, keeping current table")
		return
	}
	s.normalizer.SetRates(rates)
	s.log.Info().Int("rates", len(rates)).Msg("currency rates refreshed")
}

func (s *Scheduler) persist() {
	if err := s.state.Persist(); err != nil {
		s.log.Error().Err(err).Msg("persist cycle state")
	}
}
