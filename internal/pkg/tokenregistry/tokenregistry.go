// Package tokenregistry keeps the allow-list of admin cookie tokens in a Redis set.
package tokenregistry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Registry is the set of tokens currently allowed into the admin area.
type Registry struct {
	rdb *redis.Client
	key string
}

func New(rdb *redis.Client, key string) *Registry {
	return &Registry{rdb: rdb, key: key}
}

// Key returns the Redis key backing the registry.
func (r *Registry) Key() string { return r.key }

// Tokens returns the full allow-list in a single read.
func (r *Registry) Tokens(ctx context.Context) (map[string]struct{}, error) {
	members, err := r.rdb.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read token registry: %w", err)
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set, nil
}

// Contains reports whether token is in the allow-list.
func (r *Registry) Contains(ctx context.Context, token string) (bool, error) {
	tokens, err := r.Tokens(ctx)
	if err != nil {
		return false, err
	}
	_, ok := tokens[token]
	return ok, nil
}

func (r *Registry) Add(ctx context.Context, token string) error {
	if err := r.rdb.SAdd(ctx, r.key, token).Err(); err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

func (r *Registry) Remove(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	members := make([]interface{}, len(tokens))
	for i, t := range tokens {
		members[i] = t
	}
	if err := r.rdb.SRem(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
