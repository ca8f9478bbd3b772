package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Session binds an opaque token to the account that logged in.
type Session struct {
	Token     string `json:"token"`
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
}

// Store is a key-value session store with expiry. Get reports a miss with
// ok=false rather than an error; absent and expired tokens look the same.
type Store interface {
	Put(ctx context.Context, sess Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (Session, bool, error)
	// Delete is idempotent; removing an absent token is not an error.
	Delete(ctx context.Context, token string) error
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}

// MemoryStore keeps sessions in process memory; they do not survive a
// restart. Expired entries are pruned by the cache janitor.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a volatile store with the given default TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryStore) Put(_ context.Context, sess Session, ttl time.Duration) error {
	m.cache.Set(sess.Token, sess, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (Session, bool, error) {
	v, ok := m.cache.Get(token)
	if !ok {
		return Session{}, false, nil
	}
	sess, ok := v.(Session)
	return sess, ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.cache.Delete(token)
	return nil
}

// RedisStore keeps sessions in Redis as JSON values with a key TTL, so they
// survive server restarts and can be shared across processes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "roster:session:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Put(ctx context.Context, sess Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+sess.Token, data, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, token string) (Session, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.prefix+token).Err()
}
