package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"sjsage522/toriwatch/pkg/parser"
)

// RedisPublisher implements Publisher using Redis streams. Each listing is
// one stream entry; listings are spread over streamCount streams by ID, so
// the same listing always lands on the same stream.
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if streamCount <= 0 {
		streamCount = 1
	}

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks that the server is reachable
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// StreamFor returns the stream a listing is published to.
// With streamCount 10 the names are prefix:0 to prefix:9.
func (p *RedisPublisher) StreamFor(id string) string {
	shard := xxhash.Sum64String(id) % uint64(p.streamCount)
	return p.streamPrefix + ":" + strconv.FormatUint(shard, 10)
}

// Publish adds one entry per listing in a single pipeline
func (p *RedisPublisher) Publish(ctx context.Context, source string, items []parser.Item) error {
	if len(items) == 0 {
		return nil
	}

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to encode listing %s: %w", item.ID, err)
			}
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: p.StreamFor(item.ID),
				MaxLen: int64(p.streamMaxLength),
				Approx: true,
				Values: map[string]interface{}{
					"id":     item.ID,
					"source": source,
					"item":   data,
				},
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %d listings from %s: %w", len(items), source, err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	for i := 0; i < p.streamCount; i++ {
		stream := p.streamPrefix + ":" + strconv.Itoa(i)
		if err := p.client.XTrimMaxLen(ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return fmt.Errorf("failed to trim %s: %w", stream, err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
