// Package queue holds the ordering and selection logic for the shared
// playback queue. The engine keeps no state of its own; it orchestrates the
// store.
package queue

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"karaoke-service/internal/models"
	"karaoke-service/internal/store"
)

// ErrConflict is returned when a queue rewrite kept losing to concurrent
// writers after maxRetries attempts. Callers surface it as a transient
// conflict, not a store failure.
var ErrConflict = errors.New("queue: concurrent modification, retries exhausted")

const maxRetries = 3

type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// AddSong persists the song metadata and appends its id to the queue.
// No queue-length cap is enforced here; capacity policy belongs above.
func (e *Engine) AddSong(ctx context.Context, song *models.Song) error {
	if err := e.store.SaveSong(ctx, song); err != nil {
		return err
	}
	return e.store.AppendToQueue(ctx, song.ID)
}

// RemoveSong removes the id from the queue and deletes its metadata.
// Idempotent: removing an absent id is not an error.
func (e *Engine) RemoveSong(ctx context.Context, songID string) error {
	if err := e.store.RemoveFromQueue(ctx, songID); err != nil {
		return err
	}
	return e.store.DeleteSong(ctx, songID)
}

// GetCurrentSong resolves the head of the queue. Returns (nil, nil) when the
// queue is empty or the head's metadata has expired.
func (e *Engine) GetCurrentSong(ctx context.Context) (*models.Song, error) {
	ids, err := e.store.QueueIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return e.store.GetSong(ctx, ids[0])
}

// SkipCurrentSong removes the head it observed and returns the new head (or
// nil on an emptied queue). The removal is by value, so two skips racing on
// the same head remove exactly one song between them.
func (e *Engine) SkipCurrentSong(ctx context.Context) (*models.Song, error) {
	ids, err := e.store.QueueIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := e.store.RemoveFromQueue(ctx, ids[0]); err != nil {
		return nil, err
	}
	return e.GetCurrentSong(ctx)
}

// ReorderQueue moves songID to newPosition. Returns false without writing
// when the id is absent or newPosition is outside [0, len-1]. The underlying
// store only supports append and remove-by-value, so the move is a full
// delete-and-rebuild guarded by WATCH; losing writers retry up to maxRetries
// before giving up with ErrConflict.
func (e *Engine) ReorderQueue(ctx context.Context, songID string, newPosition int) (bool, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		moved, err := e.store.RewriteQueue(ctx, func(ids []string) ([]string, bool) {
			idx := -1
			for i, id := range ids {
				if id == songID {
					idx = i
					break
				}
			}
			if idx < 0 || newPosition < 0 || newPosition >= len(ids) {
				return nil, false
			}
			next := make([]string, 0, len(ids))
			next = append(next, ids[:idx]...)
			next = append(next, ids[idx+1:]...)
			next = append(next[:newPosition], append([]string{songID}, next[newPosition:]...)...)
			return next, true
		})
		if err == nil {
			return moved, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return false, err
		}
	}
	return false, ErrConflict
}

// GetAllSongs resolves every queued id in order, silently dropping ids whose
// metadata has expired. The head is reported with status "playing"; that is
// a presentation hint derived from its position, never written back.
func (e *Engine) GetAllSongs(ctx context.Context) ([]models.Song, error) {
	ids, err := e.store.QueueIDs(ctx)
	if err != nil {
		return nil, err
	}
	songs := make([]models.Song, 0, len(ids))
	for i, id := range ids {
		song, err := e.store.GetSong(ctx, id)
		if err != nil {
			return nil, err
		}
		if song == nil {
			continue
		}
		if i == 0 {
			song.Status = models.StatusPlaying
		}
		songs = append(songs, *song)
	}
	return songs, nil
}

// GetQueueState assembles the derived read-model: head is current, aggregate
// duration sums every resolvable song. CurrentSongStartedAt stays null (no
// playback timer in this core).
func (e *Engine) GetQueueState(ctx context.Context) (*models.QueueState, error) {
	ids, err := e.store.QueueIDs(ctx)
	if err != nil {
		return nil, err
	}

	state := &models.QueueState{
		Queue:         ids,
		TotalSongs:    len(ids),
		QueueDuration: formatDuration(0),
	}
	if len(ids) == 0 {
		return state, nil
	}
	state.CurrentSong = &ids[0]

	total := 0
	for _, id := range ids {
		song, err := e.store.GetSong(ctx, id)
		if err != nil {
			return nil, err
		}
		if song == nil {
			continue
		}
		if secs, ok := parseDuration(song.Duration); ok {
			total += secs
		}
	}
	state.QueueDuration = formatDuration(total)
	return state, nil
}

// ClearQueue removes every queue entry and its metadata.
func (e *Engine) ClearQueue(ctx context.Context) error {
	ids, err := e.store.QueueIDs(ctx)
	if err != nil {
		return err
	}
	if err := e.store.ClearQueue(ctx); err != nil {
		return err
	}
	for _, id := range ids {
		if err := e.store.DeleteSong(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
