// Package moderation turns chat events into ledger changes: reputation,
// advertences and their role tiers, fines and settlement, permanent bans and
// their paid redemption.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinmod/database/schemas"
	"coinmod/modules/ledger"
	"coinmod/modules/payments"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

const (
	DefaultFrontendTimeout = 10 * time.Second
	DefaultPaymentTimeout  = 15 * time.Second
)

type Options struct {
	Logger          *zap.Logger
	Filter          WordFilter
	Clock           func() time.Time
	FrontendTimeout time.Duration
	PaymentTimeout  time.Duration
}

type Engine struct {
	store    *ledger.Store
	frontend Frontend
	gateway  Gateway
	filter   WordFilter
	logger   *zap.Logger
	now      func() time.Time

	frontendTimeout time.Duration
	paymentTimeout  time.Duration

	// members with a payment in flight, keyed guild:user
	inflight *xsync.MapOf[string, struct{}]
}

func New(store *ledger.Store, frontend Frontend, gateway Gateway, opts Options) *Engine {
	e := &Engine{
		store:           store,
		frontend:        frontend,
		gateway:         gateway,
		filter:          opts.Filter,
		logger:          opts.Logger,
		now:             opts.Clock,
		frontendTimeout: opts.FrontendTimeout,
		paymentTimeout:  opts.PaymentTimeout,
		inflight:        xsync.NewMapOf[string, struct{}](),
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.frontendTimeout <= 0 {
		e.frontendTimeout = DefaultFrontendTimeout
	}
	if e.paymentTimeout <= 0 {
		e.paymentTimeout = DefaultPaymentTimeout
	}
	return e
}

func (e *Engine) Store() *ledger.Store {
	return e.store
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}

// Message strips the error kind so the remainder can be shown to the actor.
// Errors of no known kind become a generic message.
func Message(err error) string {
	for _, kind := range []error{ErrValidation, ErrPrecondition} {
		if errors.Is(err, kind) {
			return strings.TrimPrefix(err.Error(), kind.Error()+": ")
		}
	}
	if errors.Is(err, ErrGateway) {
		return "Coin payment failed. Error: " + strings.TrimPrefix(err.Error(), ErrGateway.Error()+": ")
	}
	return "An internal error occurred."
}

// bestEffort runs a front-end call under the front-end timeout. A failure is
// logged, counted and returned as an ErrCollaborator for callers that care;
// most ignore it.
func (e *Engine) bestEffort(ctx context.Context, op string, fn func(ctx context.Context) error, fields ...zap.Field) error {
	ctx, cancel := context.WithTimeout(ctx, e.frontendTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		CollaboratorFailureCounter.WithLabelValues(op).Inc()
		e.logger.Warn("front-end call failed", append(fields, zap.String("op", op), zap.Error(err))...)
		return fmt.Errorf("%w: %s: %w", ErrCollaborator, op, err)
	}
	return nil
}

// notify routes a notice to the guild's configured channel. Log and revoke
// notices are dropped when the channel is not configured.
func (e *Engine) notify(ctx context.Context, guild *schemas.Guild, n Notice) {
	n.GuildID = guild.GuildID
	switch n.Kind {
	case NoticeLog:
		n.ChannelID = guild.LogChannel
	case NoticeRevoke:
		n.ChannelID = guild.RevokeChannel
	}
	if n.Kind != NoticeDirect && n.ChannelID == "" {
		return
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = e.now()
	}

	_ = e.bestEffort(ctx, "notify", func(ctx context.Context) error {
		return e.frontend.Notify(ctx, n)
	}, zap.String("guild", guild.GuildID), zap.Stringer("kind", n.Kind))
}

// pay runs one gateway call under the payment timeout.
func (e *Engine) pay(ctx context.Context, purpose string, req payments.Request) error {
	ctx, cancel := context.WithTimeout(ctx, e.paymentTimeout)
	defer cancel()

	start := time.Now()
	err := e.gateway.Pay(ctx, req)
	PaymentDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		PaymentCounter.WithLabelValues(purpose, "failed").Inc()
		e.logger.Warn("payment failed",
			zap.String("purpose", purpose),
			zap.String("amount", req.Amount.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrGateway, err)
	}
	PaymentCounter.WithLabelValues(purpose, "ok").Inc()
	return nil
}

// acquire marks a member as paying. The returned func releases the mark.
func (e *Engine) acquire(guildID, userID string) (func(), error) {
	key := guildID + ":" + userID
	if _, loaded := e.inflight.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrSettlementInProgress
	}
	return func() { e.inflight.Delete(key) }, nil
}

func (e *Engine) guildName(ctx context.Context, guildID string) string {
	var name string
	err := e.bestEffort(ctx, "guild_name", func(ctx context.Context) error {
		var err error
		name, err = e.frontend.GuildName(ctx, guildID)
		return err
	}, zap.String("guild", guildID))
	if err != nil || name == "" {
		return guildID
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
