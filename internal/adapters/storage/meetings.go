// Package storage holds the adapters for the platform's external stores: the
// relational meeting directory (SQLite) and the chat/room document store
// (Badger). The signaling layer only reads meetings and participants; the
// tables are owned and populated by the scheduling service.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/consiliumhq/signaling/internal/domain"
)

const meetingSchema = `
CREATE TABLE IF NOT EXISTS meetings (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'scheduled',
	room_id    TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS participants (
	id         TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	specialty  TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS meeting_participants (
	meeting_id     TEXT NOT NULL REFERENCES meetings(id),
	participant_id TEXT NOT NULL REFERENCES participants(id),
	role           TEXT NOT NULL DEFAULT 'participant',
	PRIMARY KEY (meeting_id, participant_id)
);
`

// MeetingStore answers the meeting directory queries over SQLite.
type MeetingStore struct {
	db *sql.DB
}

// OpenMeetingStore opens the meeting directory and bootstraps the schema.
func OpenMeetingStore(path string) (*MeetingStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("meeting store path is required")
	}
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open meeting store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping meeting store: %w", err)
	}
	if _, err := db.Exec(meetingSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap meeting schema: %w", err)
	}
	return &MeetingStore{db: db}, nil
}

func (s *MeetingStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MeetingExists returns the meeting registered for the room, or nil when the
// room is unknown upstream.
func (s *MeetingStore) MeetingExists(ctx context.Context, room domain.RoomID) (*domain.Meeting, error) {
	var m domain.Meeting
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, status FROM meetings WHERE room_id = ?`, string(room),
	).Scan(&m.ID, &m.Title, &m.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("meeting lookup: %w", err)
	}
	return &m, nil
}

func (s *MeetingStore) IsParticipant(ctx context.Context, room domain.RoomID, pid domain.ParticipantID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1
		   FROM meeting_participants mp
		   JOIN meetings m ON m.id = mp.meeting_id
		  WHERE m.room_id = ? AND mp.participant_id = ?`,
		string(room), string(pid),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("participant lookup: %w", err)
	}
	return true, nil
}

// ParticipantProfile enriches a participant id with the profile fields shown
// in presence events. The role is the one from the participant's most
// relevant meeting row; profiles without any meeting row default to
// "participant".
func (s *MeetingStore) ParticipantProfile(ctx context.Context, pid domain.ParticipantID) (domain.Profile, error) {
	var p domain.Profile
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.first_name, p.last_name, p.specialty, p.avatar_url,
		        COALESCE((SELECT mp.role FROM meeting_participants mp
		                   WHERE mp.participant_id = p.id LIMIT 1), 'participant')
		   FROM participants p WHERE p.id = ?`,
		string(pid),
	).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Specialty, &p.AvatarURL, &role)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile lookup: %w", err)
	}
	p.Role = domain.Role(role)
	return p, nil
}

// MeetingForRoom resolves the owning meeting id, "" when the room is not
// registered.
func (s *MeetingStore) MeetingForRoom(ctx context.Context, room domain.RoomID) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM meetings WHERE room_id = ?`, string(room),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("meeting id lookup: %w", err)
	}
	return id, nil
}
