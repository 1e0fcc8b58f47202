package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOpts configures a RedisStore.
type RedisOpts struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
	Timeout   time.Duration
}

// RedisStore is a Gateway backed by Redis strings (point documents) and lists (history).
type RedisStore struct {
	rdb *redis.Client
	ns  string
}

// NewRedisStore creates a RedisStore. The connection is established lazily.
func NewRedisStore(o RedisOpts) *RedisStore {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
	}), o.Namespace)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, namespace string) *RedisStore {
	if strings.TrimSpace(namespace) == "" {
		namespace = "locator"
	}
	return &RedisStore{rdb: rdb, ns: namespace}
}

func (r *RedisStore) docKey(key string) string  { return r.ns + ":doc:" + key }
func (r *RedisStore) histKey(key string) string { return r.ns + ":hist:" + key }

// Read returns the document at key.
func (r *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, r.docKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Write stores doc at key without expiry.
func (r *RedisStore) Write(ctx context.Context, key string, doc []byte) error {
	if err := r.rdb.Set(ctx, r.docKey(key), doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// AppendHistory pushes record to the head of key's list, so the head is always the newest.
func (r *RedisStore) AppendHistory(ctx context.Context, key string, record []byte) error {
	if err := r.rdb.LPush(ctx, r.histKey(key), record).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", key, err)
	}
	return nil
}

// ReadHistory returns up to limit records, newest first.
func (r *RedisStore) ReadHistory(ctx context.Context, key string, limit int) ([][]byte, error) {
	if limit <= 0 {
		return [][]byte{}, nil
	}
	vals, err := r.rdb.LRange(ctx, r.histKey(key), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", key, err)
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

// List scans the point documents under prefix and returns them ordered by key.
func (r *RedisStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, escapeGlob(r.docKey(prefix))+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return [][]byte{}, nil
	}
	sort.Strings(keys)

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget %s: %w", prefix, err)
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		// keys deleted between SCAN and MGET come back as nil
		if s, ok := v.(string); ok {
			out = append(out, []byte(s))
		}
	}
	return out, nil
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisStore) Close(ctx context.Context) error {
	return r.rdb.Close()
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
