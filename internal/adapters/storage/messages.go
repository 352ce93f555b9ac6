package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/domain"
)

// ChatStore persists room messages and the room-name records in Badger.
// Keys are time-ordered per room so history reads are a single prefix scan.
type ChatStore struct {
	db           *badger.DB
	historyLimit int

	mu       sync.Mutex
	lastNano int64
}

func OpenChatStore(path string, historyLimit int) (*ChatStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open chat store: %w", err)
	}
	return &ChatStore{db: db, historyLimit: historyLimit}, nil
}

func (s *ChatStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// nextTimestamp returns a strictly increasing timestamp so key order always
// matches arrival order, even when the clock ties on nanoseconds.
func (s *ChatStore) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().UnixNano()
	if now <= s.lastNano {
		now = s.lastNano + 1
	}
	s.lastNano = now
	return time.Unix(0, now).UTC()
}

func messageKey(room domain.RoomID, at time.Time, id string) []byte {
	return fmt.Appendf(nil, "chat:%s:%020d:%s", room, at.UnixNano(), id)
}

func roomKey(room domain.RoomID) []byte {
	return fmt.Appendf(nil, "room:%s", room)
}

// SaveMessage stores one message, assigning its id and timestamp.
func (s *ChatStore) SaveMessage(ctx context.Context, meetingID string, room domain.RoomID, sender domain.ParticipantID, content string) (domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatMessage{}, err
	}
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		RoomID:    room,
		SenderID:  sender,
		Content:   content,
		CreatedAt: s.nextTimestamp(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("marshal message: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(room, msg.CreatedAt, msg.ID), data)
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

// HistoryFor returns up to historyLimit prior messages in chronological
// order. Key layout makes the scan naturally oldest-first; the limit keeps
// the newest tail.
func (s *ChatStore) HistoryFor(ctx context.Context, room domain.RoomID) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := fmt.Appendf(nil, "chat:%s:", room)
	var out []domain.ChatMessage
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var msg domain.ChatMessage
				if err := json.Unmarshal(v, &msg); err != nil {
					return fmt.Errorf("unmarshal message: %w", err)
				}
				out = append(out, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if s.historyLimit > 0 && len(out) > s.historyLimit {
		out = out[len(out)-s.historyLimit:]
	}
	return out, nil
}

// EnsureRoom upserts the room-name record. Idempotent by key.
func (s *ChatStore) EnsureRoom(ctx context.Context, room domain.RoomID, displayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := json.Marshal(struct {
		ID          domain.RoomID `json:"id"`
		DisplayName string        `json:"displayName"`
	}{ID: room, DisplayName: displayName})
	if err != nil {
		return fmt.Errorf("marshal room record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room), record)
	})
	if err != nil {
		return fmt.Errorf("ensure room: %w", err)
	}
	log.Debug().Str("module", "storage.chat").Str("room", string(room)).Msg("room record ensured")
	return nil
}

// RoomName reads back a room-name record, "" when absent.
func (s *ChatStore) RoomName(room domain.RoomID) (string, error) {
	var name string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(room))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var record struct {
				DisplayName string `json:"displayName"`
			}
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			name = record.DisplayName
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("room record lookup: %w", err)
	}
	return name, nil
}
