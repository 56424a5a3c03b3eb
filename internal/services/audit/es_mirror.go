package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

var ErrMirrorQueueFull = errors.New("audit mirror queue is full")

// esDocument 写入 Elasticsearch 的文档结构
type esDocument struct {
	EventID     string    `json:"event_id"`
	DocumentID  uint64    `json:"document_id"`
	Action      string    `json:"action"`
	UserID      *uint64   `json:"user_id,omitempty"`
	ShareLinkID *uint64   `json:"share_link_id,omitempty"`
	IPAddress   *string   `json:"ip_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ESMirror 异步把审计日志镜像到 Elasticsearch，供运维检索
// 队列满时丢弃并计数，不阻塞调用方
type ESMirror struct {
	client  *elasticsearch.Client
	index   string
	queue   chan models.AccessLog
	metrics *metrics.Metrics
}

var _ Mirror = (*ESMirror)(nil)

func NewESMirror(client *elasticsearch.Client, index string, buffer int, m *metrics.Metrics) *ESMirror {
	if buffer <= 0 {
		buffer = 1024
	}
	return &ESMirror{
		client:  client,
		index:   index,
		queue:   make(chan models.AccessLog, buffer),
		metrics: m,
	}
}

func (m *ESMirror) Mirror(_ context.Context, entry models.AccessLog) error {
	select {
	case m.queue <- entry:
		return nil
	default:
		return ErrMirrorQueueFull
	}
}

// Run 消费队列直到 ctx 结束
func (m *ESMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-m.queue:
			if err := m.write(ctx, entry); err != nil {
				m.metrics.IncAuditMirrorFailure()
				logger.Warn("Failed to index access log in Elasticsearch",
					zap.String("eventID", entry.EventID),
					zap.String("index", m.index),
					zap.Error(err))
			}
		}
	}
}

func (m *ESMirror) write(ctx context.Context, entry models.AccessLog) error {
	body, err := json.Marshal(esDocument{
		EventID:     entry.EventID,
		DocumentID:  entry.DocumentID,
		Action:      entry.Action.String(),
		UserID:      entry.UserID,
		ShareLinkID: entry.ShareLinkID,
		IPAddress:   entry.IPAddress,
		CreatedAt:   entry.CreatedAt,
	})
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 以 event_id 作为文档 id，重复写入是覆盖而不是新增
	res, err := m.client.Index(
		m.index,
		bytes.NewReader(body),
		m.client.Index.WithDocumentID(entry.EventID),
		m.client.Index.WithContext(reqCtx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index error: %s", res.Status())
	}
	return nil
}
