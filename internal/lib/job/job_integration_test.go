//go:build integration

package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/inquiry-intake/internal/config"
	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var redisURL string

func TestMain(m *testing.M) {
	docker, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not connect to docker: %s", err)
	}

	resource, err := docker.Run("redis", "7-alpine", nil)
	if err != nil {
		log.Fatalf("could not start redis: %s", err)
	}

	redisURL = fmt.Sprintf("redis://localhost:%s/0", resource.GetPort("6379/tcp"))
	err = docker.Retry(func() error {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer client.Close()
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		log.Fatalf("could not connect to redis: %s", err)
	}

	code := m.Run()

	_ = docker.Purge(resource)
	os.Exit(code)
}

// collectingProcessor records every batch it receives.
type collectingProcessor struct {
	mu      sync.Mutex
	batches [][]model.NotificationMessage
	done    chan struct{}
	want    int
	seen    int
}

func (p *collectingProcessor) ProcessBatch(_ context.Context, records []Record) []Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch := make([]model.NotificationMessage, 0, len(records))
	results := make([]Result, len(records))
	for i, r := range records {
		var msg model.NotificationMessage
		if err := json.Unmarshal(r.Body, &msg); err != nil {
			results[i] = Result{Record: r, Err: Permanent(err)}
			continue
		}
		batch = append(batch, msg)
		results[i] = Result{Record: r, InquiryID: msg.Inquiry.ID}
	}
	p.batches = append(p.batches, batch)

	p.seen += len(records)
	if p.seen >= p.want {
		select {
		case <-p.done:
		default:
			close(p.done)
		}
	}
	return results
}

func TestNotificationsAreDeliveredInBatches(t *testing.T) {
	queueName := fmt.Sprintf("inquiries-%d", time.Now().UnixNano())
	target, err := ParseQueueURL(redisURL + "?queue=" + queueName)
	require.NoError(t, err)

	logger := zerolog.Nop()
	cfg := &config.Config{Queue: config.QueueConfig{
		BatchSize:         5,
		BatchGracePeriod:  time.Second,
		BatchMaxDelay:     5 * time.Second,
		VisibilityTimeout: 30 * time.Second,
		Concurrency:       2,
		MaxRetry:          1,
	}}

	const n = 7
	proc := &collectingProcessor{done: make(chan struct{}), want: n}

	j := NewJobService(&logger, cfg, target, nil)
	j.InitHandlers(proc)
	require.NoError(t, j.Start())
	t.Cleanup(j.Stop)

	ids := map[string]bool{}
	for i := range n {
		msg := model.NotificationMessage{
			Inquiry: model.Inquiry{ID: fmt.Sprintf("inq-%d", i), InquiryType: "wholesale", InquiryItems: []string{"apples"}},
			Admin:   "admin@example.com",
		}
		messageID, err := j.PublishNotification(context.Background(), msg)
		require.NoError(t, err)
		assert.NotEmpty(t, messageID)
		ids[msg.Inquiry.ID] = true
	}

	select {
	case <-proc.done:
	case <-time.After(20 * time.Second):
		t.Fatal("notifications were not processed in time")
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()

	delivered := 0
	for _, batch := range proc.batches {
		assert.LessOrEqual(t, len(batch), 5)
		for _, msg := range batch {
			assert.True(t, ids[msg.Inquiry.ID])
			delivered++
		}
	}
	assert.Equal(t, n, delivered)
	assert.Greater(t, n, len(proc.batches))
}
