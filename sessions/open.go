package sessions

import (
	"context"
	"fmt"
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Options struct {
	Backend        string
	DataFolder     string
	RedisURL       string
	RedisKeyPrefix string
}

// Open builds the store backend selected by opts.Backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.DataFolder)
	case BackendMemory:
		return NewInMemoryStore(), nil
	case BackendRedis:
		return NewRedisStoreFromURL(ctx, opts.RedisURL, opts.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("[sessions Open] unknown session store %q", opts.Backend)
	}
}
