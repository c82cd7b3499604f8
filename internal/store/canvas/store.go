// Package canvas persists the append-only event log of the shared drawing
// document under a single Redis key.
//
// Mutations are read-modify-write over the whole serialized log with no
// compare-and-swap: two concurrent appends can race and one can be silently
// lost (last-write-wins on the whole log, not per-event). The intended usage
// pattern is a single logical writer at a time; hardening would require an
// atomic append primitive at the store level.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/collabcanvas/relay-service/internal/domain/model"
)

// Key holds the JSON array of canvas events for the one shared document.
const Key = "canvas:drawing_events"

const emptyLog = "[]"

// ErrStore wraps backend failures. The document is left in its last-known-good
// state when it is returned.
var ErrStore = errors.New("canvas store")

// Store is the exclusive owner of the canvas event log.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Append adds one event to the end of the log.
//
// A missing or unparseable stored value is treated as an empty log rather
// than an error, guaranteeing progress at the cost of losing a corrupt tail.
func (s *Store) Append(ctx context.Context, ev *model.CanvasEvent) error {
	entry, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", ErrStore, err)
	}

	raw, err := s.read(ctx)
	if err != nil {
		return err
	}

	// Untouched entries are carried as raw JSON so an append never rewrites
	// or drops events it did not produce.
	var log []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		log = nil
	}
	log = append(log, entry)

	return s.write(ctx, log)
}

// ReadAll replays the whole log in arrival order. A corrupt stored value
// yields an empty sequence, never an error.
func (s *Store) ReadAll(ctx context.Context) ([]model.CanvasEvent, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	var events []model.CanvasEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return []model.CanvasEvent{}, nil
	}
	if events == nil {
		events = []model.CanvasEvent{}
	}
	return events, nil
}

// Clear resets the document to an empty log.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Set(ctx, Key, emptyLog, 0).Err(); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrStore, err)
	}
	return nil
}

// RemoveWhere drops every event matching the predicate, preserving the
// relative order of the rest. If the stored log fails to parse the store
// degrades to Clear, returning the document to a consistent state.
func (s *Store) RemoveWhere(ctx context.Context, match func(model.CanvasEvent) bool) error {
	raw, err := s.read(ctx)
	if err != nil {
		return err
	}

	var events []model.CanvasEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return s.Clear(ctx)
	}

	kept := make([]json.RawMessage, 0, len(events))
	for _, ev := range events {
		if match(ev) {
			continue
		}
		entry, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("%w: marshal event: %v", ErrStore, err)
		}
		kept = append(kept, entry)
	}

	return s.write(ctx, kept)
}

func (s *Store) read(ctx context.Context) (string, error) {
	raw, err := s.rdb.Get(ctx, Key).Result()
	if errors.Is(err, redis.Nil) {
		return emptyLog, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrStore, err)
	}
	return raw, nil
}

func (s *Store) write(ctx context.Context, log []json.RawMessage) error {
	body, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("%w: marshal log: %v", ErrStore, err)
	}
	if log == nil {
		body = []byte(emptyLog)
	}
	if err := s.rdb.Set(ctx, Key, body, 0).Err(); err != nil {
		return fmt.Errorf("%w: write: %v", ErrStore, err)
	}
	return nil
}
