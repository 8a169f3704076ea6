package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// KeyValue is a store of string values. Get returns ErrKeyNotFound for absent keys.
type KeyValue interface {
	io.Closer

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type Options struct {
	Driver     string
	RedisAddr  string
	SQLitePath string
}

func New(ctx context.Context, opts Options) (KeyValue, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStorage(), nil
	case DriverRedis:
		redisStorage, err := NewRedisStorage(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		return redisStorage, nil
	case DriverSQLite:
		sqliteStorage, err := NewSQLiteStorage(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStorage, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, opts.Driver)
	}
}
