// Package cache provides the Valkey-backed store for collection detail responses.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey is a thin key/value cache over a Valkey (Redis-compatible) server.
type Valkey struct {
	client valkey.Client
}

// NewValkey connects to the server at addr.
func NewValkey(addr string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("cache: valkey connect: %w", err)
	}
	return &Valkey{client: client}, nil
}

// Get returns the value stored at key. found is false when the key does not exist.
func (v *Valkey) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	b, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return b, true, nil
}

// Set stores value at key with the given time to live.
func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := v.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Incr atomically increments the integer at key and returns the new value.
func (v *Valkey) Incr(ctx context.Context, key string) (int64, error) {
	n, err := v.client.Do(ctx, v.client.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("cache: incr %s: %w", key, err)
	}
	return n, nil
}

// Ping checks the server connection.
func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (v *Valkey) Close() {
	v.client.Close()
}
