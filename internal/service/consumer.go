package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/queue"
)

// Handler processes the JSON body of one event. A returned error leaves the message pending
// so the auto-claimer redelivers it.
type Handler func(ctx context.Context, data []byte) error

// Consumer reads change events from the Redis streams and dispatches them by event type.
type Consumer struct {
	queue       queue.Queue
	consumer    string
	minIdleTime time.Duration
	handlers    map[string]Handler
}

func NewConsumer(q queue.Queue, consumer string, minIdleTime int) *Consumer {
	return &Consumer{
		queue:       q,
		consumer:    consumer,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
		handlers:    make(map[string]Handler),
	}
}

// Handle registers h for eventType. It must be called before Run.
func (c *Consumer) Handle(eventType string, h Handler) {
	c.handlers[eventType] = h
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for eventType := range c.handlers {
		c.runForStream(ctx, &wg, c.queue.Stream(eventType))
	}

	wg.Wait()
	return nil
}

func (c *Consumer) runForStream(ctx context.Context, wg *sync.WaitGroup, streamName string) {
	// Auto-claimer for this stream
	if c.minIdleTime > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(c.minIdleTime)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					claimed, err := c.queue.AutoClaim(ctx, c.consumer, streamName, c.minIdleTime)
					if err != nil {
						log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
						continue
					}
					if len(claimed) > 0 {
						log.Infof("🔄 Auto-claimed %d messages from %s", len(claimed), streamName)
					}
					for _, msg := range claimed {
						if err := c.processMessage(ctx, streamName, &msg); err != nil {
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("🚀 Starting consumer %s on %s", c.consumer, streamName)
		for {
			select {
			case <-ctx.Done():
				log.Infof("🛑 Consumer on %s stopping", streamName)
				return
			default:
				msg, err := c.queue.Read(ctx, c.consumer, streamName)
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					log.Errorf("❌ Failed to read from %s: %v", streamName, err)
					time.Sleep(time.Second)
					continue
				}

				if msg != nil {
					if err := c.processMessage(ctx, streamName, msg); err != nil {
						log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
					}
				}
			}
		}
	}()
}

func (c *Consumer) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	eventType, data, err := queue.Payload(msg)
	if err != nil {
		// Not ours; ack so it does not cycle through the auto-claimer forever
		_ = c.queue.Ack(ctx, streamName, msg.ID)
		return err
	}

	handler, ok := c.handlers[eventType]
	if !ok {
		_ = c.queue.Ack(ctx, streamName, msg.ID)
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := handler(ctx, data); err != nil {
		return fmt.Errorf("failed to handle %s: %w", eventType, err)
	}

	if err := c.queue.Ack(ctx, streamName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}
