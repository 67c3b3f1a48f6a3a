package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricewatch/internal/domain"
	"pricewatch/internal/storage"
	"pricewatch/pkg/logx"
)

// Mutating commands write the store first and mirror into the registry
// second; the registry is rebuilt from the store at startup, so a crash
// between the two steps reconciles on restart.

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	created, err := r.store.CreateUser(ctx, chatID)
	if err != nil {
		r.log.Error("create user failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	if !created {
		// Repeated /start is a no-op.
		return
	}
	if err := r.reg.Schedule(chatID, domain.FireHour(domain.DefaultHour, 0), domain.DefaultMinute, false); err != nil {
		r.log.Error("schedule failed", logx.Int64("chat", chatID), logx.Err(err))
	}
	r.reply(ctx, chatID, textStart)
}

func (r *Router) handleAdd(ctx context.Context, chatID int64, args string) {
	if _, ok := r.requireUser(ctx, chatID); !ok {
		return
	}
	market, article, description, err := domain.ParseAddArgs(r.cfg.Markets, args)
	switch {
	case errors.Is(err, domain.ErrUnknownMarket):
		r.reply(ctx, chatID, fmt.Sprintf(textWrongMarket, strings.Join(r.cfg.Markets, ", ")))
		return
	case err != nil:
		r.reply(ctx, chatID, textWrongAdd)
		return
	}

	// A tracked item starts from a successful live lookup; that also
	// seeds the stored price.
	price, err := r.prices.Current(ctx, market, article)
	if err != nil {
		r.log.Debug("add lookup failed", logx.String("market", market), logx.Int64("article", article), logx.Err(err))
		r.reply(ctx, chatID, textWrongArticle)
		return
	}

	added, err := r.store.AddItem(ctx, domain.Item{
		UserID:      chatID,
		Market:      market,
		Article:     article,
		Price:       price,
		Description: description,
	})
	if err != nil {
		r.log.Error("add item failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	if !added {
		// Duplicate add is a silent no-op.
		return
	}
	r.reply(ctx, chatID, fmt.Sprintf(textArticleAdded, price))
}

func (r *Router) handleDel(ctx context.Context, chatID int64, args string) {
	if _, ok := r.requireUser(ctx, chatID); !ok {
		return
	}
	market, article, err := domain.ParseDelArgs(r.cfg.Markets, args)
	switch {
	case errors.Is(err, domain.ErrUnknownMarket):
		r.reply(ctx, chatID, fmt.Sprintf(textWrongMarket, strings.Join(r.cfg.Markets, ", ")))
		return
	case err != nil:
		r.reply(ctx, chatID, textWrongDel)
		return
	}
	found, err := r.store.DeleteItem(ctx, chatID, market, article)
	if err != nil {
		r.log.Error("del item failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	if !found {
		// Silently does nothing when not tracked.
		return
	}
	r.reply(ctx, chatID, fmt.Sprintf(textArticleRemove, market, article))
}

func (r *Router) handleView(ctx context.Context, chatID int64) {
	if _, ok := r.requireUser(ctx, chatID); !ok {
		return
	}
	items, err := r.store.ListItems(ctx, chatID)
	if err != nil {
		r.log.Error("list items failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	if len(items) == 0 {
		r.reply(ctx, chatID, textListEmpty)
		return
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf(textListElement, it.Market, it.Article, it.Price, it.Description))
	}
	r.reply(ctx, chatID, textListHeader)
	r.reply(ctx, chatID, strings.Join(lines, "\n"))
}

func (r *Router) handleMode(ctx context.Context, chatID int64, args string) {
	if _, ok := r.requireUser(ctx, chatID); !ok {
		return
	}
	mode, err := domain.ParseMode(r.cfg.Modes, args)
	if err != nil {
		r.reply(ctx, chatID, fmt.Sprintf(textWrongMode, strings.Join(r.cfg.Modes, ", ")))
		return
	}
	if err := r.store.SetMode(ctx, chatID, mode); err != nil {
		r.log.Error("set mode failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	r.reply(ctx, chatID, textModeChanged)
}

func (r *Router) handleTime(ctx context.Context, chatID int64, args string) {
	u, ok := r.requireUser(ctx, chatID)
	if !ok {
		return
	}
	hour, minute, tz, err := domain.ParseTimeArgs(args, u.Timezone)
	if err != nil {
		r.reply(ctx, chatID, textWrongTime)
		return
	}
	if err := r.store.SetSchedule(ctx, chatID, hour, minute, tz); err != nil {
		r.log.Error("set schedule failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	if err := r.reg.Reschedule(chatID, domain.FireHour(hour, tz), minute); err != nil {
		r.log.Error("reschedule failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	r.reply(ctx, chatID, textTimeChanged)
}

func (r *Router) handleTimezone(ctx context.Context, chatID int64, args string) {
	u, ok := r.requireUser(ctx, chatID)
	if !ok {
		return
	}
	tz, err := domain.ParseTimezone(args)
	if err != nil {
		r.reply(ctx, chatID, fmt.Sprintf(textWrongTZ, domain.TimezoneMin, domain.TimezoneMax))
		return
	}
	if err := r.store.SetTimezone(ctx, chatID, tz); err != nil {
		r.log.Error("set timezone failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	if err := r.reg.Reschedule(chatID, domain.FireHour(u.Hour, tz), u.Minute); err != nil {
		r.log.Error("reschedule failed", logx.Int64("chat", chatID), logx.Err(err))
		return
	}
	r.reply(ctx, chatID, textTZChanged)
}

func (r *Router) handlePause(ctx context.Context, chatID int64) {
	if r.setPaused(ctx, chatID, true) {
		r.reply(ctx, chatID, textPaused)
	}
}

func (r *Router) handleResume(ctx context.Context, chatID int64) {
	if r.setPaused(ctx, chatID, false) {
		r.reply(ctx, chatID, textResumed)
	}
}

func (r *Router) setPaused(ctx context.Context, chatID int64, paused bool) bool {
	u, ok := r.requireUser(ctx, chatID)
	if !ok {
		return false
	}
	if err := r.store.SetPaused(ctx, chatID, paused); err != nil {
		r.log.Error("set paused failed", logx.Int64("chat", chatID), logx.Err(err))
		return false
	}
	var err error
	if paused {
		err = r.reg.Pause(chatID)
	} else {
		err = r.reg.Resume(chatID)
	}
	if err != nil {
		// No live job (drift): recreate from the stored row.
		err = r.reg.Schedule(chatID, domain.FireHour(u.Hour, u.Timezone), u.Minute, paused)
	}
	if err != nil {
		r.log.Error("update job failed", logx.Int64("chat", chatID), logx.Err(err))
		return false
	}
	return true
}

func (r *Router) handleHelp(ctx context.Context, chatID int64) {
	r.reply(ctx, chatID, fmt.Sprintf(textHelp, strings.Join(r.cfg.Modes, ", ")))
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	u, ok := r.requireUser(ctx, chatID)
	if !ok {
		return
	}
	state := textStatusOn
	if u.Paused {
		state = textStatusOff
	}
	mode := "?"
	if int(u.Mode) >= 0 && int(u.Mode) < len(r.cfg.Modes) {
		mode = r.cfg.Modes[u.Mode]
	}
	r.reply(ctx, chatID, fmt.Sprintf(textStatus, u.Hour, u.Minute, u.Timezone, mode, state))
}

// requireUser loads the caller's row, prompting for /start when absent.
func (r *Router) requireUser(ctx context.Context, chatID int64) (*domain.User, bool) {
	u, err := r.store.GetUser(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		r.reply(ctx, chatID, textNotRegistered)
		return nil, false
	}
	if err != nil {
		r.log.Error("load user failed", logx.Int64("chat", chatID), logx.Err(err))
		return nil, false
	}
	return u, true
}
