package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Relay publishes bus events to a Redis channel so consumers outside
// the process (dashboards, audit pipelines) can follow the ledger
// without polling the HTTP API.
type Relay struct {
	client  *redis.Client
	channel string
}

// NewRelay connects to Redis and verifies the connection.
func NewRelay(addr, password string, db int, channel string) (*Relay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Relay{client: client, channel: channel}, nil
}

// Run forwards events from the bus until the context is cancelled or
// the bus closes. Publish failures are logged and skipped; the ledger
// itself never waits on Redis.
func (r *Relay) Run(ctx context.Context, bus *Bus) {
	ch, cancel := bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("[events] WARNING: marshal event %d: %v", ev.ID, err)
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
				log.Printf("[events] WARNING: publish event %d: %v", ev.ID, err)
			}
		}
	}
}

// Close releases the Redis connection.
func (r *Relay) Close() error {
	return r.client.Close()
}
