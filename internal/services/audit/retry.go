package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const payloadField = "payload"

// RedisRetryQueue 把写库失败的日志追加到 Redis Stream
type RedisRetryQueue struct {
	client *redis.Client
	stream string
}

var _ RetryQueue = (*RedisRetryQueue)(nil)

func NewRedisRetryQueue(client *redis.Client, stream string) *RedisRetryQueue {
	return &RedisRetryQueue{client: client, stream: stream}
}

func (q *RedisRetryQueue) Enqueue(ctx context.Context, entry models.AccessLog) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal access log: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{payloadField: string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", q.stream, err)
	}
	return nil
}

// RetryConsumer 以消费组方式回放重试流，写库成功后才 XACK
// event_id 唯一，重复回放不会产生重复记录
type RetryConsumer struct {
	client   *redis.Client
	store    Store
	metrics  *metrics.Metrics
	stream   string
	group    string
	consumer string
	batch    int64
	block    time.Duration
	backoff  time.Duration

	groupReady bool
}

func NewRetryConsumer(client *redis.Client, store Store, stream, group string, m *metrics.Metrics) *RetryConsumer {
	return &RetryConsumer{
		client:   client,
		store:    store,
		metrics:  m,
		stream:   stream,
		group:    group,
		consumer: "audit-retry-" + uuid.NewString()[:8],
		batch:    50,
		block:    2 * time.Second,
		backoff:  5 * time.Second,
	}
}

// Run 循环消费直到 ctx 结束
func (c *RetryConsumer) Run(ctx context.Context) {
	logger.Info("Audit retry consumer started", zap.String("stream", c.stream), zap.String("consumer", c.consumer))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Audit retry consumer stopped")
			return
		default:
		}

		if _, err := c.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error("Consumer: Failed to read audit retry stream", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(c.backoff):
			}
		}
	}
}

func (c *RetryConsumer) ensureGroup(ctx context.Context) error {
	if c.groupReady {
		return nil
	}
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.groupReady = true
	return nil
}

// ProcessOnce 先处理本消费者未确认的消息，再读取新消息，返回成功回放的条数
func (c *RetryConsumer) ProcessOnce(ctx context.Context) (int, error) {
	if err := c.ensureGroup(ctx); err != nil {
		return 0, err
	}

	pending, err := c.read(ctx, "0", -1)
	if err != nil {
		return 0, err
	}
	replayed := c.handle(ctx, pending)

	fresh, err := c.read(ctx, ">", c.block)
	if err != nil {
		return replayed, err
	}
	return replayed + c.handle(ctx, fresh), nil
}

func (c *RetryConsumer) read(ctx context.Context, id string, block time.Duration) ([]redis.XMessage, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, id},
		Count:    c.batch,
		Block:    block, // go-redis v8 中 0 表示永久阻塞，负数表示不阻塞
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out []redis.XMessage
	for _, s := range streams {
		out = append(out, s.Messages...)
	}
	return out, nil
}

func (c *RetryConsumer) handle(ctx context.Context, messages []redis.XMessage) int {
	replayed := 0
	for _, message := range messages {
		entry, err := decodeRetryMessage(message)
		if err != nil {
			// 无法解析的消息重试也不会成功，直接确认丢弃
			logger.Error("Consumer: Dropping malformed audit retry message", zap.String("messageID", message.ID), zap.Error(err))
			c.metrics.IncAuditRetried("dropped")
			c.ack(ctx, message.ID)
			continue
		}

		if err := c.store.Create(ctx, entry); err != nil {
			// 不确认，消息留在 pending list 等待下一轮
			logger.Error("Consumer: Failed to replay access log", zap.String("eventID", entry.EventID), zap.Error(err))
			c.metrics.IncAuditRetried("failed")
			continue
		}
		c.metrics.IncAuditRetried("ok")
		c.ack(ctx, message.ID)
		replayed++
	}
	return replayed
}

func (c *RetryConsumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		logger.Error("Consumer: Failed to ack audit retry message", zap.String("messageID", id), zap.Error(err))
	}
}

func decodeRetryMessage(message redis.XMessage) (*models.AccessLog, error) {
	raw, ok := message.Values[payloadField].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message payload format")
	}
	var entry models.AccessLog
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if entry.EventID == "" {
		return nil, fmt.Errorf("message has no event id")
	}
	entry.ID = 0
	return &entry, nil
}
