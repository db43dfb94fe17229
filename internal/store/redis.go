// Package store is the single adapter over the shared Redis instance. It
// owns the key layout; nothing else in the service touches Redis keys
// directly.
package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"karaoke-service/internal/models"
)

const (
	queueKey      = "karaoke:queue"
	songKeyPrefix = "karaoke:song:"
	hostKeyKey    = "karaoke:host_key"

	// Song metadata expires on its own so abandoned sessions do not grow
	// the store without bound. An id can therefore outlive its song hash;
	// callers resolve-and-filter.
	songTTL = 24 * time.Hour
)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Queue operations. The queue is a plain Redis list of song ids.

func (s *Store) AppendToQueue(ctx context.Context, songID string) error {
	return s.rdb.RPush(ctx, queueKey, songID).Err()
}

// RemoveFromQueue removes every occurrence of songID. Removing an absent id
// is a no-op, which is what makes concurrent skips of the same head collapse
// into a single removal.
func (s *Store) RemoveFromQueue(ctx context.Context, songID string) error {
	return s.rdb.LRem(ctx, queueKey, 0, songID).Err()
}

func (s *Store) QueueIDs(ctx context.Context) ([]string, error) {
	return s.rdb.LRange(ctx, queueKey, 0, -1).Result()
}

func (s *Store) QueueLen(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, queueKey).Result()
}

func (s *Store) ClearQueue(ctx context.Context) error {
	return s.rdb.Del(ctx, queueKey).Err()
}

// RewriteQueue replaces the whole queue under an optimistic WATCH: rewrite
// receives the current ids and returns the new ordering, or ok=false to
// abort without writing. A concurrent mutation of the queue surfaces as
// redis.TxFailedErr; retrying is the caller's decision.
func (s *Store) RewriteQueue(ctx context.Context, rewrite func(ids []string) ([]string, bool)) (bool, error) {
	applied := false
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		ids, err := tx.LRange(ctx, queueKey, 0, -1).Result()
		if err != nil {
			return err
		}
		next, ok := rewrite(ids)
		if !ok {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, queueKey)
			if len(next) > 0 {
				args := make([]interface{}, len(next))
				for i, id := range next {
					args[i] = id
				}
				pipe.RPush(ctx, queueKey, args...)
			}
			return nil
		})
		if err == nil {
			applied = true
		}
		return err
	}, queueKey)
	return applied, err
}

// Song metadata operations. One hash per song, 24h expiry.

func (s *Store) SaveSong(ctx context.Context, song *models.Song) error {
	key := songKeyPrefix + song.ID
	if err := s.rdb.HSet(ctx, key, song).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, songTTL).Err()
}

// GetSong returns (nil, nil) for a missing or expired song.
func (s *Store) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	res := s.rdb.HGetAll(ctx, songKeyPrefix+songID)
	if err := res.Err(); err != nil {
		return nil, err
	}
	if len(res.Val()) == 0 {
		return nil, nil
	}
	var song models.Song
	if err := res.Scan(&song); err != nil {
		return nil, err
	}
	return &song, nil
}

func (s *Store) DeleteSong(ctx context.Context, songID string) error {
	return s.rdb.Del(ctx, songKeyPrefix+songID).Err()
}

// Host key slot. A single string value with its own TTL; at most one live
// key system-wide.

func (s *Store) SetHostKey(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Set(ctx, hostKeyKey, key, ttl).Err()
}

// GetHostKey returns ("", nil) when no key is active.
func (s *Store) GetHostKey(ctx context.Context) (string, error) {
	val, err := s.rdb.Get(ctx, hostKeyKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *Store) DeleteHostKey(ctx context.Context) error {
	return s.rdb.Del(ctx, hostKeyKey).Err()
}
