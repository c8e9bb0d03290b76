// Package maintenance runs the periodic expiry and role re-sync pass.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coinmod/database/schemas"
	"coinmod/modules/ledger"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	DefaultInterval  = 5 * time.Minute
	MessageRetention = 30 * 24 * time.Hour
)

var (
	PassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coinmod_maintenance_pass_seconds",
		Help:    "Duration of maintenance passes",
		Buckets: prometheus.DefBuckets,
	})
	ExpiredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coinmod_maintenance_expired_total",
		Help: "Rows removed by maintenance, by table",
	}, []string{"table"})
)

func init() {
	prometheus.MustRegister(PassDuration, ExpiredCounter)
}

// RoleSyncer recomputes a member's tier roles from the ledger.
type RoleSyncer interface {
	SyncRoles(ctx context.Context, guildID, userID string) error
}

// Job deletes expired advertences and activity logs, then re-syncs the roles
// of everyone who held an advertence when the pass started.
type Job struct {
	store    *ledger.Store
	syncer   RoleSyncer
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	running sync.Mutex
}

func New(store *ledger.Store, syncer RoleSyncer, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		store:    store,
		syncer:   syncer,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Result summarizes one pass.
type Result struct {
	Skipped            bool  `json:"skipped"`
	ExpiredAdvertences int64 `json:"expiredAdvertences"`
	ExpiredMessages    int64 `json:"expiredMessages"`
	Synced             int   `json:"synced"`
	SyncFailures       int   `json:"syncFailures"`
}

// Run performs one pass. A pass already in progress makes Run return
// immediately with Skipped set.
func (j *Job) Run(ctx context.Context) (Result, error) {
	if !j.running.TryLock() {
		j.logger.Debug("maintenance pass already running, skipping")
		return Result{Skipped: true}, nil
	}
	defer j.running.Unlock()

	start := time.Now()
	defer func() { PassDuration.Observe(time.Since(start).Seconds()) }()

	var res Result
	now := j.now()

	// taken first so members whose last advertence expires here lose their role
	holders, err := j.store.AdvertenceHolders(ctx)
	if err != nil {
		return res, fmt.Errorf("list advertence holders: %w", err)
	}

	res.ExpiredAdvertences, err = j.store.DeleteAdvertencesBefore(ctx, now.Add(-ledger.AdvertenceTTL).UnixMilli())
	if err != nil {
		return res, fmt.Errorf("expire advertences: %w", err)
	}
	ExpiredCounter.WithLabelValues("advs").Add(float64(res.ExpiredAdvertences))

	res.ExpiredMessages, err = j.store.DeleteMessagesBefore(ctx, now.Add(-MessageRetention).UnixMilli())
	if err != nil {
		return res, fmt.Errorf("prune messages: %w", err)
	}
	ExpiredCounter.WithLabelValues("messages").Add(float64(res.ExpiredMessages))

	res.Synced, res.SyncFailures = j.sync(ctx, holders)

	j.logger.Info("maintenance pass completed",
		zap.Int64("expired_advertences", res.ExpiredAdvertences),
		zap.Int64("expired_messages", res.ExpiredMessages),
		zap.Int("synced", res.Synced),
		zap.Int("sync_failures", res.SyncFailures),
	)
	return res, nil
}

func (j *Job) sync(ctx context.Context, holders []schemas.Subject) (synced, failed int) {
	for _, s := range holders {
		if ctx.Err() != nil {
			return
		}
		if err := j.syncer.SyncRoles(ctx, s.GuildID, s.UserID); err != nil {
			failed++
			j.logger.Warn("role sync failed", zap.String("guild", s.GuildID), zap.String("user", s.UserID), zap.Error(err))
			continue
		}
		synced++
	}
	return
}

// Start runs a pass every interval until ctx is done.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				j.logger.Error("maintenance pass failed", zap.Error(err))
			}
		}
	}
}
