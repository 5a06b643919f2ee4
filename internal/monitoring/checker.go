package monitoring

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/config"
)

// Checker periodically collects extraction health metrics and raises alerts.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a background health checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Run blocks until ctx is cancelled. The first check fires after a
// randomized fraction of the interval, so restarting replicas spread their
// store queries instead of hitting it in lockstep.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	firstDelay := time.Duration(rand.Int64N(int64(interval/4) + 1))

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("extraction health checks enabled",
		zap.Duration("interval", interval),
		zap.Duration("first_check_in", firstDelay),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	timer := time.NewTimer(firstDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		log.Info("extraction health checks stopped")
		return
	case <-timer.C:
	}
	c.check(ctx, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("extraction health checks stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("monitoring: collect extraction metrics", zap.Error(err))
		return
	}

	log.Debug("extraction health snapshot",
		zap.Int("invoices", snap.Total),
		zap.Int("completed", snap.Completed),
		zap.Int("failed", snap.Failed),
		zap.Float64("fail_rate", snap.FailRate),
		zap.Float64("avg_confidence", snap.AvgConfidence),
	)

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("extraction health alerts raised",
		zap.Int("triggered", len(alerts)),
		zap.Int("sent", sent),
	)
}
