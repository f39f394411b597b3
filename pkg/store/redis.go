package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// redisStore keeps chunk records as plain values. Useful for volumes
// shared between processes or for keeping hot volumes off the local disk.
type redisStore struct {
	rdb  *redis.Client
	desc string
}

var ctx = context.Background()

func newRedisStore(uri string) (ChunkStore, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", uri)
	}
	rdb := redis.NewClient(opt)
	if err = rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "ping %s", opt.Addr)
	}
	return &redisStore{rdb: rdb, desc: fmt.Sprintf("redis://%s/%d", opt.Addr, opt.DB)}, nil
}

func (s *redisStore) Get(key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotExist
	}
	return data, err
}

func (s *redisStore) Put(key string, data []byte) error {
	return s.rdb.Set(ctx, key, data, 0).Err()
}

func (s *redisStore) Exists(key string) bool {
	n, err := s.rdb.Exists(ctx, key).Result()
	return err == nil && n > 0
}

func (s *redisStore) Delete(key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *redisStore) List() ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, "*", 1000).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (s *redisStore) String() string {
	return s.desc
}
