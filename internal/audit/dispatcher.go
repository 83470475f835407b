// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

// Package audit delivers security-relevant events to a notification
// sink, best-effort and decoupled from the workflows that produce them.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/guildgate/guildgate/internal/registry"
)

// deliverTimeout bounds one delivery attempt so a stuck sink cannot
// stall the consumer goroutine.
const deliverTimeout = 10 * time.Second

// Notifier is the delivery backend, typically the gateway's log-channel
// notifier. Implementations must be safe for use from a single
// dispatcher goroutine.
type Notifier interface {
	Notify(ctx context.Context, event registry.Event) error
}

// dispatcherMetrics are registered on the registry the observability
// server scrapes, not the package-level default.
type dispatcherMetrics struct {
	emitted  *prometheus.CounterVec
	dropped  prometheus.Counter
	failures prometheus.Counter
}

func newDispatcherMetrics(reg prometheus.Registerer) *dispatcherMetrics {
	factory := promauto.With(reg)
	return &dispatcherMetrics{
		emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildgate_audit_events_total",
			Help: "Total number of audit events accepted for delivery",
		}, []string{"kind"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "guildgate_audit_dropped_total",
			Help: "Total number of audit events dropped because the queue was full",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "guildgate_audit_failures_total",
			Help: "Total number of audit delivery failures",
		}),
	}
}

// Dispatcher implements registry.AuditEmitter with a buffered queue and
// a single consumer goroutine. Emit never blocks: when the queue is
// full the event is dropped and counted, because audit delivery must
// not back-pressure registration.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	metrics  *dispatcherMetrics

	queue    chan registry.Event
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher and starts its consumer goroutine.
// Counters register on reg (a throwaway registry when nil).
// queueSize <= 0 falls back to 256.
func NewDispatcher(notifier Notifier, logger *slog.Logger, queueSize int, reg prometheus.Registerer) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		metrics:  newDispatcherMetrics(reg),
		queue:    make(chan registry.Event, queueSize),
		stopChan: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.consume()

	return d
}

// Emit queues an event for delivery. Never blocks; drops when full.
func (d *Dispatcher) Emit(event registry.Event) {
	select {
	case d.queue <- event:
		d.metrics.emitted.WithLabelValues(string(event.Kind)).Inc()
	default:
		d.metrics.dropped.Inc()
		d.logger.Warn("audit queue full, event dropped",
			"kind", event.Kind,
			"external_id", event.ExternalID)
	}
}

// Close stops the consumer after draining queued events.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
		d.wg.Wait()
	})
}

func (d *Dispatcher) consume() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stopChan:
			// Drain what is left before exiting.
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event registry.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, event); err != nil {
		d.metrics.failures.Inc()
		d.logger.Error("audit delivery failed",
			"kind", event.Kind,
			"event_id", event.ID.String(),
			"error", err)
	}
}

// Compile-time interface check.
var _ registry.AuditEmitter = (*Dispatcher)(nil)

// SlogNotifier writes audit events to structured logs. Used as the sink
// when no log channels are configured.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a SlogNotifier.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

// Notify logs the event.
func (n *SlogNotifier) Notify(_ context.Context, event registry.Event) error {
	n.logger.Info("audit event",
		"event_id", event.ID.String(),
		"kind", event.Kind,
		"external_id", event.ExternalID,
		"nickname", event.Nickname,
		"timestamp", event.Timestamp)
	return nil
}

// Compile-time interface check.
var _ Notifier = (*SlogNotifier)(nil)
