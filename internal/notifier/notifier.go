// Package notifier performs the scheduled per-user price check: fetch
// current prices with bounded fan-out, persist them, and send at most two
// messages describing what changed.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pricewatch/internal/domain"
	"pricewatch/internal/storage"
	"pricewatch/internal/transport"
	"pricewatch/pkg/logx"
)

const (
	headerText = "🔔 Price check for your tracked items:"
	lineFormat = "%s %d: %d → %d %s"
)

// PriceSource yields the current price for one tracked item.
type PriceSource interface {
	Current(ctx context.Context, market string, article int64) (int64, error)
}

// Sender delivers outbound messages.
type Sender interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string) error
}

// JobRemover detaches a user's recurring job after a cascade delete.
type JobRemover interface {
	Remove(userID int64) error
}

type Config struct {
	// Concurrency bounds the per-run price fetch fan-out.
	Concurrency int
	// RatePerSec limits outbound sends across all runs.
	RatePerSec int
}

type Service struct {
	log    logx.Logger
	store  storage.Store
	prices PriceSource
	sender Sender
	jobs   JobRemover

	concurrency int
	limiter     *rate.Limiter
}

func New(cfg Config, store storage.Store, prices PriceSource, sender Sender, jobs JobRemover, log logx.Logger) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:         log,
		store:       store,
		prices:      prices,
		sender:      sender,
		jobs:        jobs,
		concurrency: cfg.Concurrency,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Run executes one notification cycle for the user. Per-item fetch
// failures are skipped (the stored price stays put); a permanently
// unreachable recipient cascade-deletes the user and their job.
func (s *Service) Run(ctx context.Context, userID int64) error {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		// Row is gone but the job fired: drop the stray job.
		_ = s.jobs.Remove(userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	// Fan out fetches; results land by index so message order follows
	// store order, not completion order.
	fetched := make([]int64, len(items))
	ok := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, it := range items {
		g.Go(func() error {
			price, err := s.prices.Current(gctx, it.Market, it.Article)
			if err != nil {
				s.log.Debug("price fetch failed, skipping item",
					logx.Int64("user", userID), logx.String("market", it.Market),
					logx.Int64("article", it.Article), logx.Err(err))
				return nil
			}
			fetched[i] = price
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; partial failure is per item

	var lines []string
	for i, it := range items {
		if !ok[i] {
			continue
		}
		// Persist unconditionally, even when unchanged, so the stored
		// price always reflects the last successful check.
		if err := s.store.SetPrice(ctx, userID, it.Market, it.Article, fetched[i]); err != nil {
			s.log.Warn("persist price failed",
				logx.Int64("user", userID), logx.String("market", it.Market),
				logx.Int64("article", it.Article), logx.Err(err))
			continue
		}
		if u.Mode == domain.ModeAllUpdates || fetched[i] != it.Price {
			lines = append(lines, fmt.Sprintf(lineFormat, it.Market, it.Article, it.Price, fetched[i], it.Description))
		}
	}
	if len(lines) == 0 {
		return nil
	}

	to := transport.ChatTarget{ChatID: userID}
	if err := s.send(ctx, to, headerText); err != nil {
		return s.handleSendErr(ctx, userID, err)
	}
	if err := s.send(ctx, to, strings.Join(lines, "\n")); err != nil {
		return s.handleSendErr(ctx, userID, err)
	}
	return nil
}

func (s *Service) send(ctx context.Context, to transport.ChatTarget, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.sender.SendText(ctx, to, text)
}

// handleSendErr turns a permanent delivery failure into the cascade
// delete; anything else is the run's error.
func (s *Service) handleSendErr(ctx context.Context, userID int64, err error) error {
	if !errors.Is(err, transport.ErrRecipientGone) {
		return err
	}
	s.log.Info("recipient gone, removing user", logx.Int64("user", userID))
	if derr := s.store.DeleteUser(ctx, userID); derr != nil {
		return fmt.Errorf("cascade delete user %d: %w", userID, derr)
	}
	_ = s.jobs.Remove(userID)
	return nil
}
