package metrics

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// RedisStore mirrors the in-flight gauge into Redis so it stays accurate
// across gateway replicas. It is an optional backing store: InflightGuard
// works standalone with the package-level Prometheus gauge; RedisStore adds
// a cross-process view on top, keyed by model and endpoint.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore connects to the addresses in addrs. Callers should Close
// the returned store on shutdown.
func NewRedisStore(addrs []string) (*RedisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: addrs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis metrics store: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) key(model string, endpoint Endpoint) string {
	return fmt.Sprintf("gateway:inflight:%s:%s", model, endpoint)
}

// Incr bumps the distributed in-flight counter for (model, endpoint).
func (s *RedisStore) Incr(ctx context.Context, model string, endpoint Endpoint) error {
	cmd := s.client.B().Incr().Key(s.key(model, endpoint)).Build()

	return s.client.Do(ctx, cmd).Error()
}

// Decr releases the distributed in-flight counter for (model, endpoint).
func (s *RedisStore) Decr(ctx context.Context, model string, endpoint Endpoint) error {
	cmd := s.client.B().Decr().Key(s.key(model, endpoint)).Build()

	return s.client.Do(ctx, cmd).Error()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() {
	s.client.Close()
}
