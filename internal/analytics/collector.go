package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/nilquery/ixora/internal/analytics/collector"
	"github.com/nilquery/ixora/pkg/kafka"
)

// Collector buffers analytics events from many concurrent request handlers
// and hands them off to a collector.BatchCollector, which flushes them to
// Kafka in bulk rather than one message per event.
type Collector struct {
	batch   *collector.BatchCollector
	eventCh chan interface{}
	logger  *slog.Logger
	done    chan struct{}
}

// NewCollector creates a Collector backed by producer. bufferSize bounds the
// in-memory event channel; events are flushed to Kafka in batches of up to
// 100, or every 5 seconds, whichever comes first.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	c := &Collector{
		batch:   collector.NewBatchCollector(producer, 100, 5*time.Second),
		eventCh: make(chan interface{}, bufferSize),
		logger:  slog.Default().With("component", "analytics-collector"),
		done:    make(chan struct{}),
	}

	return c
}

func (c *Collector) Start(ctx context.Context) {
	c.batch.Start(ctx)
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.batch.Track("analytics", event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Track(event interface{}) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close drains any buffered events into the batch collector, then waits for
// its final flush to complete.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
	c.batch.Close()
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.batch.Track("analytics", event)
		default:
			return
		}
	}
}
