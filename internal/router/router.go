// Package router dispatches chat commands to their handlers.
package router

import (
	"context"
	"strings"

	"pricewatch/internal/notifier"
	"pricewatch/internal/registry"
	"pricewatch/internal/storage"
	"pricewatch/internal/transport"
	"pricewatch/pkg/logx"
)

type Config struct {
	// Markets is the allow-list of marketplace identifiers.
	Markets []string
	// Modes maps mode names to codes by position.
	Modes []string
}

type Router struct {
	log    logx.Logger
	cfg    Config
	store  storage.Store
	reg    *registry.Registry
	prices notifier.PriceSource
	sender notifier.Sender
}

func New(cfg Config, store storage.Store, reg *registry.Registry, prices notifier.PriceSource, sender notifier.Sender, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{log: log, cfg: cfg, store: store, reg: reg, prices: prices, sender: sender}
}

// Handle routes one inbound update. Non-command text and unknown commands
// are ignored.
func (r *Router) Handle(ctx context.Context, up transport.Update) {
	cmd, args := splitCommand(up.Text)
	if cmd == "" {
		return
	}
	switch cmd {
	case "start":
		r.handleStart(ctx, up.ChatID)
	case "add":
		r.handleAdd(ctx, up.ChatID, args)
	case "del":
		r.handleDel(ctx, up.ChatID, args)
	case "view":
		r.handleView(ctx, up.ChatID)
	case "mode":
		r.handleMode(ctx, up.ChatID, args)
	case "time":
		r.handleTime(ctx, up.ChatID, args)
	case "timezone":
		r.handleTimezone(ctx, up.ChatID, args)
	case "pause":
		r.handlePause(ctx, up.ChatID)
	case "resume":
		r.handleResume(ctx, up.ChatID)
	case "help":
		r.handleHelp(ctx, up.ChatID)
	case "status":
		r.handleStatus(ctx, up.ChatID)
	}
}

// splitCommand extracts "/cmd rest..." from a message, stripping an
// optional @botname suffix on the command.
func splitCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, args, _ = strings.Cut(text[1:], " ")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text); err != nil {
		r.log.Warn("reply failed", logx.Int64("chat", chatID), logx.Err(err))
	}
}
