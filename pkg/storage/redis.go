package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const keyPrefix = "cs:room:"

type Redis struct {
	c   *redis.Client
	log *logger.Logger
}

func NewRedis(conf config.Storage, log *logger.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddress,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	return &Redis{c: client, log: log}
}

func roomKey(key string) string { return keyPrefix + key }

func (r *Redis) Save(ctx context.Context, key string, doc RoomDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("redis: room %s encode fail: %w", key, err)
	}
	if err := r.c.Set(ctx, roomKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: room %s save fail: %w", key, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, key string) (*RoomDoc, error) {
	data, err := r.c.Get(ctx, roomKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: room %s load fail: %w", key, err)
	}
	var doc RoomDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("redis: room %s decode fail: %w", key, err)
	}
	return &doc, nil
}

func (r *Redis) Close() error { return r.c.Close() }
