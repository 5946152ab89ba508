package job

import (
	"fmt"
	"net/url"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is used when the queue URL does not name a queue.
const DefaultQueueName = "inquiry-processing-queue"

// QueueTarget is a parsed queue URL: the Redis server backing the queue and
// the queue's name on it.
type QueueTarget struct {
	Name  string
	Redis *redis.Options
}

// ParseQueueURL parses redis://[user:pass@]host:port[/db][?queue=name].
// The queue parameter is removed before the remainder is handed to
// go-redis, which rejects unknown options.
func ParseQueueURL(raw string) (*QueueTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid queue url: %w", err)
	}

	query := u.Query()
	name := query.Get("queue")
	if name == "" {
		name = DefaultQueueName
	}
	query.Del("queue")
	u.RawQuery = query.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("invalid queue url: %w", err)
	}

	return &QueueTarget{Name: name, Redis: opts}, nil
}

// AsynqOpt returns the connection options for asynq clients and servers.
func (q *QueueTarget) AsynqOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Network:   q.Redis.Network,
		Addr:      q.Redis.Addr,
		Username:  q.Redis.Username,
		Password:  q.Redis.Password,
		DB:        q.Redis.DB,
		TLSConfig: q.Redis.TLSConfig,
	}
}
