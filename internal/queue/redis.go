package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/config"
	"storefront/catalog/internal/domain/event"
)

const (
	fieldEventType = "event_type"
	fieldEventData = "event_data"
)

// EventTypes are the streams every instance reads from.
var EventTypes = []string{event.ProductsChangedType, event.TaxonomyChangedType}

// Publisher is the write side of the queue.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) (string, error) // Returns message ID
}

type Queue interface {
	Publisher
	Read(ctx context.Context, consumer, stream string) (*redis.XMessage, error)
	Ack(ctx context.Context, stream, msgID string) error
	AutoClaim(ctx context.Context, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error)
	CreateGroup(ctx context.Context, stream, group string) error
	EnsureStreamsExist(ctx context.Context) error
	Stream(eventType string) string
}

type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
	groupName    string
	block        time.Duration
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: cfg.StreamPrefix,
		groupName:    cfg.ConsumerGroup,
		block:        5 * time.Second,
	}

	// Streams and the consumer group must exist before consumers start
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

// SetBlock changes how long Read waits for a new message.
func (q *RedisQueue) SetBlock(d time.Duration) {
	q.block = d
}

func (q *RedisQueue) Stream(eventType string) string {
	return q.streamPrefix + eventType
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", group, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) Publish(ctx context.Context, e event.Event) (string, error) {
	eventType := e.EventType()
	streamName := q.Stream(eventType)

	value, err := e.EventValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			fieldEventType: eventType,
			fieldEventData: string(value),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add event to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Published %s to stream %s with message ID: %s", eventType, streamName, messageID)
	return messageID, nil
}

func (q *RedisQueue) Read(ctx context.Context, consumer, stream string) (*redis.XMessage, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return &result[0].Messages[0], nil
}

func (q *RedisQueue) Ack(ctx context.Context, stream, msgID string) error {
	return q.redisClient.XAck(ctx, stream, q.groupName, msgID).Err()
}

func (q *RedisQueue) AutoClaim(
	ctx context.Context,
	consumer,
	stream string,
	minIdleTime time.Duration,
) ([]redis.XMessage, error) {
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	return result, nil
}

// EnsureStreamsExist creates all required streams and the consumer group upfront.
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	log.Info("🔧 Creating Redis streams and consumer groups...")

	for _, eventType := range EventTypes {
		streamName := q.Stream(eventType)
		if err := q.CreateGroup(ctx, streamName, q.groupName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", eventType, err)
		}
		log.Infof("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}

	return nil
}

// Payload extracts the event type and raw JSON body of a stream message.
func Payload(msg *redis.XMessage) (string, []byte, error) {
	eventType, ok := msg.Values[fieldEventType].(string)
	if !ok {
		return "", nil, fmt.Errorf("invalid event type in message %s", msg.ID)
	}

	data, ok := msg.Values[fieldEventData].(string)
	if !ok {
		return "", nil, fmt.Errorf("invalid event data in message %s", msg.ID)
	}

	return eventType, []byte(data), nil
}
