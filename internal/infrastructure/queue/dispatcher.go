// Package queue delivers serialized ledger actions to the external audit
// portal without blocking the transition path.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/permitology/permit-system/internal/api/metrics"
	"github.com/permitology/permit-system/internal/core/view"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ExportSink receives one serialized action at a time. Implementations talk to
// the audit portal; LogSink is the default used when no portal is configured.
type ExportSink interface {
	Deliver(ctx context.Context, item view.ActionView) error
}

// LogSink writes each exported action to the structured log.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Deliver(_ context.Context, item view.ActionView) error {
	s.Log.Info().
		Str("kind", item.Kind).
		Str("actor", item.Actor.Email).
		Interface("action", item).
		Msg("audit export")
	return nil
}

// Dispatcher routes exported actions to a fixed set of workers using
// consistent hashing on the case ID, guaranteeing per-case delivery order.
// No ordering is promised across unrelated cases.
type Dispatcher struct {
	workers []chan view.ActionView
	sink    ExportSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ExportSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan view.ActionView, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan view.ActionView, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an exported action to the worker responsible for its case.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(caseID string, item view.ActionView) {
	i := d.shardIndex(caseID)
	d.workers[i] <- item
	metrics.ExportQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
}

// shardIndex maps a shard key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan view.ActionView) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Deliver(ctx, item); err != nil {
				d.log.Error().Err(err).
					Str("kind", item.Kind).
					Int("worker_id", id).
					Msg("audit export delivery failed")
			}
			metrics.ExportQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
