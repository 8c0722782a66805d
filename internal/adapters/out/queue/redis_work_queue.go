// Package queue implements the work queue on Redis lists with per-delivery leases.
//
// Keys for a queue named "order_queue":
//
//	order_queue             ready list; producers LPUSH, consumers take from the right
//	order_queue:processing  payloads handed to a consumer and not yet acknowledged
//	order_queue:leases      ZSET of in-flight payloads scored by lease deadline (unix ms)
//
// A payload lives in exactly one of the two lists. Pop moves it atomically from ready
// to processing, so a consumer crash can delay a message but never lose it.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// reclaimScript returns expired in-flight payloads to the consumer end of the ready
// list. In-flight payloads with no lease at all (consumer died between BLMOVE and
// ZADD) are given one, so they are reclaimed by a later sweep.
//
// KEYS[1] ready, KEYS[2] processing, KEYS[3] leases; ARGV[1] now ms, ARGV[2] ttl ms.
var reclaimScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local inflight = redis.call('LRANGE', KEYS[2], 0, -1)
for _, payload in ipairs(inflight) do
	redis.call('ZADD', KEYS[3], 'NX', now + ttl, payload)
end

local expired = redis.call('ZRANGEBYSCORE', KEYS[3], '-inf', now)
local requeued = 0
for _, payload in ipairs(expired) do
	redis.call('ZREM', KEYS[3], payload)
	if redis.call('LREM', KEYS[2], 1, payload) > 0 then
		redis.call('RPUSH', KEYS[1], payload)
		requeued = requeued + 1
	end
end
return requeued
`)

// renewScript moves a lease deadline forward only while the lease still exists, so a
// delivery that was acked or reclaimed is never leased again by its old consumer.
//
// KEYS[1] leases; ARGV[1] new deadline ms, ARGV[2] payload.
var renewScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[2]) then
	redis.call('ZADD', KEYS[1], 'XX', ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// RedisWorkQueue implements ports.WorkQueue and ports.LeaseReclaimer.
type RedisWorkQueue struct {
	client        redis.UniversalClient
	readyKey      string
	processingKey string
	leasesKey     string
	leaseTTL      time.Duration
	now           func() time.Time
}

// NewRedisWorkQueue binds a queue name to a client. leaseTTL bounds how long a
// consumer may hold a delivery before it becomes visible again.
func NewRedisWorkQueue(client redis.UniversalClient, name string, leaseTTL time.Duration) *RedisWorkQueue {
	return &RedisWorkQueue{
		client:        client,
		readyKey:      name,
		processingKey: name + ":processing",
		leasesKey:     name + ":leases",
		leaseTTL:      leaseTTL,
		now:           time.Now,
	}
}

// Push appends a payload to the tail of the queue.
func (q *RedisWorkQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.readyKey, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", q.readyKey, err)
	}
	return nil
}

// Pop blocks up to timeout for the oldest payload and leases it for leaseTTL.
// Returns ports.ErrQueueEmpty when the wait elapsed.
func (q *RedisWorkQueue) Pop(ctx context.Context, timeout time.Duration) (ports.Delivery, error) {
	payload, err := q.client.BLMove(ctx, q.readyKey, q.processingKey, "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.Delivery{}, ports.ErrQueueEmpty
		}
		return ports.Delivery{}, fmt.Errorf("pop from %s: %w", q.readyKey, err)
	}

	deadline := q.now().Add(q.leaseTTL).UnixMilli()
	if err := q.client.ZAdd(ctx, q.leasesKey, redis.Z{Score: float64(deadline), Member: payload}).Err(); err != nil {
		// The payload is safe in the processing list; the reaper leases it later.
		return ports.Delivery{}, fmt.Errorf("lease on %s: %w", q.leasesKey, err)
	}

	return ports.Delivery{Payload: []byte(payload)}, nil
}

// Renew extends the lease of d to leaseTTL from now. Returns ports.ErrLeaseLost when
// d is no longer leased.
func (q *RedisWorkQueue) Renew(ctx context.Context, d ports.Delivery) error {
	deadline := q.now().Add(q.leaseTTL).UnixMilli()
	renewed, err := renewScript.Run(ctx, q.client, []string{q.leasesKey}, deadline, d.Payload).Int()
	if err != nil {
		return fmt.Errorf("renew lease on %s: %w", q.leasesKey, err)
	}
	if renewed == 0 {
		return ports.ErrLeaseLost
	}
	return nil
}

// Ack drops a delivery and its lease in one transaction.
func (q *RedisWorkQueue) Ack(ctx context.Context, d ports.Delivery) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processingKey, 1, d.Payload)
		pipe.ZRem(ctx, q.leasesKey, d.Payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack on %s: %w", q.processingKey, err)
	}
	return nil
}

// ReclaimExpired requeues every delivery whose lease deadline has passed.
func (q *RedisWorkQueue) ReclaimExpired(ctx context.Context) (int, error) {
	n, err := reclaimScript.Run(ctx, q.client,
		[]string{q.readyKey, q.processingKey, q.leasesKey},
		q.now().UnixMilli(), q.leaseTTL.Milliseconds(),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("reclaim expired leases on %s: %w", q.readyKey, err)
	}
	return n, nil
}

// Depth reports how many payloads are waiting and how many are in flight.
func (q *RedisWorkQueue) Depth(ctx context.Context) (ready, inFlight int64, err error) {
	cmds, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LLen(ctx, q.readyKey)
		pipe.LLen(ctx, q.processingKey)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("depth of %s: %w", q.readyKey, err)
	}

	return cmds[0].(*redis.IntCmd).Val(), cmds[1].(*redis.IntCmd).Val(), nil
}

// WithClock replaces time.Now for lease deadlines.
func (q *RedisWorkQueue) WithClock(now func() time.Time) *RedisWorkQueue {
	q.now = now
	return q
}
