// Package telegram implements transport.Adapter on top of telebot's long
// poller.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"pricewatch/internal/transport"
	"pricewatch/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	out atomic.Value // outbox

	runMu   sync.Mutex
	running bool
}

// outbox pairs the update channel with the lifecycle context it was
// started under, so inbound delivery can block instead of dropping.
type outbox struct {
	ch  chan<- transport.Update
	ctx context.Context
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	a.out.Store(outbox{})
	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Chat == nil {
			return nil
		}
		a.sendUpdate(transport.Update{ChatID: m.Chat.ID, Text: m.Text})
		return nil
	})
	return a, nil
}

// sendUpdate delivers one inbound update to the consumer. The send blocks
// so a slow consumer backpressures the poll loop; a command is only ever
// dropped at shutdown, and each drop is logged.
func (a *Adapter) sendUpdate(up transport.Update) {
	o, _ := a.out.Load().(outbox)
	if o.ch == nil {
		return
	}
	select {
	case o.ch <- up:
	case <-o.ctx.Done():
		a.log.Warn("inbound update dropped at shutdown", logx.Int64("chat", up.ChatID))
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- transport.Update) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.out.Store(outbox{ch: out, ctx: ctx})
	a.runMu.Unlock()

	go func() {
		<-ctx.Done()
		a.bot.Stop()
	}()
	go func() {
		a.log.Info("polling started")
		a.bot.Start() // blocks until Stop
		a.log.Info("polling stopped")
	}()
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	wasRunning := a.running
	a.running = false
	a.out.Store(outbox{})
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	// telebot Stop is expected to be fast; run it async so a stuck
	// getUpdates long-poll cannot stall shutdown.
	done := make(chan struct{})
	go func() {
		a.bot.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("telegram stop timed out")
	case <-time.After(2 * time.Second):
		a.log.Warn("telegram stop timed out")
	}
	return nil
}

const textLimit = 4000

func (a *Adapter) SendText(ctx context.Context, to transport.ChatTarget, text string) error {
	chat := &tele.Chat{ID: to.ChatID}
	for _, chunk := range splitText(text, textLimit) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := a.bot.Send(chat, chunk); err != nil {
			return mapSendErr(err)
		}
	}
	return nil
}

// mapSendErr folds telebot's permanent-failure responses into the
// transport sentinel. Every 403 from the Bot API means the recipient is
// out of reach for good (blocked, deactivated), as does a deleted chat.
func mapSendErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, tele.ErrChatNotFound) {
		return fmt.Errorf("%w: %v", transport.ErrRecipientGone, err)
	}
	var te *tele.Error
	if errors.As(err, &te) && te.Code == 403 {
		return fmt.Errorf("%w: %s", transport.ErrRecipientGone, te.Description)
	}
	return err
}

// splitText chunks long messages, preferring newline boundaries so item
// lists don't get cut mid-line.
func splitText(s string, limit int) []string {
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}
	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}
		if end < len(rs) {
			for i := end - 1; i > start+limit/3; i-- {
				if rs[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
