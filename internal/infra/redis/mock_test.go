//go:build !integration

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// memClient is an in-memory RedisClient. Expirations are recorded, not enforced.
type memClient struct {
	mu      sync.Mutex
	data    map[string]string
	ttl     map[string]time.Duration
	failGet error
	failSet error
}

func newMemClient() *memClient {
	return &memClient{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memClient) Ping(context.Context) error { return nil }

func (m *memClient) Set(_ context.Context, key string, value interface{}, exp time.Duration) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = toString(value)
	m.ttl[key] = exp
	return nil
}

func (m *memClient) SetNX(_ context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = toString(value)
	m.ttl[key] = exp
	return true, nil
}

func (m *memClient) Get(_ context.Context, key string) (string, error) {
	if m.failGet != nil {
		return "", m.failGet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (m *memClient) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memClient) Expire(_ context.Context, key string, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl[key] = exp
	return nil
}

func (m *memClient) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.ttl, k)
	}
	return nil
}

// Eval only understands the unlock script.
func (m *memClient) Eval(_ context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if script != luaUnlock || len(keys) != 1 || len(args) != 1 {
		return nil, errors.New("unsupported script")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[keys[0]] == toString(args[0]) {
		delete(m.data, keys[0])
		return int64(1), nil
	}
	return int64(0), nil
}

func (m *memClient) Close() error { return nil }

func toString(v interface{}) string { return fmt.Sprint(v) }
