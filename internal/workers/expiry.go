package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// Expirer is the part of the giveaway service the worker drives.
type Expirer interface {
	Due() []*dg.Giveaway
	Expire(ctx context.Context, g *dg.Giveaway) error
}

// ExpiryWorker ends giveaways whose time has run out. Ticks never overlap:
// cron skips a firing while the previous job runs, and Tick itself refuses
// to start while another tick is in progress.
type ExpiryWorker struct {
	expirer Expirer
	every   time.Duration
	log     zerolog.Logger

	cron    *cron.Cron
	running atomic.Bool
	ctx     context.Context
}

func NewExpiryWorker(expirer Expirer, every time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{expirer: expirer, every: every, log: log}
}

// Start schedules the tick. Jobs run with ctx until Stop is called.
func (w *ExpiryWorker) Start(ctx context.Context) error {
	clog := cronLogger{log: w.log}
	w.ctx = ctx
	w.cron = cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := w.cron.AddFunc(fmt.Sprintf("@every %s", w.every), func() { w.Tick(w.ctx) }); err != nil {
		return fmt.Errorf("schedule expiry tick: %w", err)
	}
	w.cron.Start()
	w.log.Info().Dur("every", w.every).Msg("Expiry worker started")
	return nil
}

// Stop halts scheduling and waits for a running tick to finish.
func (w *ExpiryWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info().Msg("Expiry worker stopped")
}

// Tick expires every due giveaway once. It returns how many were processed,
// or -1 when another tick is still running.
func (w *ExpiryWorker) Tick(ctx context.Context) int {
	if !w.running.CompareAndSwap(false, true) {
		return -1
	}
	defer w.running.Store(false)

	due := w.expirer.Due()
	for _, g := range due {
		if ctx.Err() != nil {
			break
		}
		if err := w.expirer.Expire(ctx, g); err != nil {
			w.log.Error().Err(err).Str("giveaway_id", g.ID.String()).Msg("Giveaway expiry failed")
		}
	}
	return len(due)
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
