package trace

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const maxSessions = 100

// Store persists trace data to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to a PostgreSQL trace database at connStr.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("trace open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session and prunes old ones.
func (s *Store) CreateSession(id, metadata string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, metadata, started_at) VALUES ($1, $2, $3)`,
		id, metadata, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM sessions WHERE id NOT IN (SELECT id FROM sessions ORDER BY started_at DESC LIMIT $1)`,
		maxSessions,
	)
	return err
}

// EndSession sets the ended_at timestamp.
func (s *Store) EndSession(id string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return err
}

// CreateTurn inserts a new turn.
func (s *Store) CreateTurn(id, sessionID string) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (id, session_id, started_at, status) VALUES ($1, $2, $3, 'running')`,
		id, sessionID, time.Now().UTC(),
	)
	return err
}

// UpdateTurn sets the turn's final fields.
func (s *Store) UpdateTurn(id string, durationMs float64, transcript, reply, emotionCodes, status string) error {
	_, err := s.db.Exec(
		`UPDATE turns SET duration_ms = $1, transcript = $2, reply = $3, emotion_codes = $4, status = $5 WHERE id = $6`,
		durationMs, transcript, reply, emotionCodes, status, id,
	)
	return err
}

// CreateSpan inserts a span.
func (s *Store) CreateSpan(sp Span) error {
	_, err := s.db.Exec(
		`INSERT INTO spans (id, turn_id, name, started_at, duration_ms, input, output, status, error_msg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sp.ID, sp.TurnID, sp.Name, sp.StartedAt.UTC(),
		sp.DurationMs, sp.Input, sp.Output, sp.Status, sp.Error,
	)
	return err
}

// ListSessions returns sessions ordered newest first, with turn counts.
func (s *Store) ListSessions(limit, offset int) ([]Session, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT s.id, s.metadata, s.started_at, s.ended_at, COUNT(t.id) AS turn_count
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err = rows.Scan(&sess.ID, &sess.Metadata, &sess.StartedAt, &sess.EndedAt, &sess.TurnCount); err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, total, rows.Err()
}

// GetSession returns one session with its turns, newest first.
func (s *Store) GetSession(id string) (*Session, []Turn, error) {
	var sess Session
	err := s.db.QueryRow(
		`SELECT id, metadata, started_at, ended_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Metadata, &sess.StartedAt, &sess.EndedAt)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`
		SELECT t.id, t.session_id, t.started_at, COALESCE(t.duration_ms, 0),
		       COALESCE(t.transcript, ''), COALESCE(t.reply, ''), COALESCE(t.emotion_codes, ''),
		       t.status, COUNT(sp.id) AS span_count
		FROM turns t
		LEFT JOIN spans sp ON sp.turn_id = t.id
		WHERE t.session_id = $1
		GROUP BY t.id
		ORDER BY t.started_at DESC
	`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err = rows.Scan(&t.ID, &t.SessionID, &t.StartedAt, &t.DurationMs,
			&t.Transcript, &t.Reply, &t.EmotionCodes, &t.Status, &t.SpanCount); err != nil {
			return nil, nil, err
		}
		turns = append(turns, t)
	}
	return &sess, turns, rows.Err()
}

// GetTurn returns one turn with its spans in execution order.
func (s *Store) GetTurn(sessionID, turnID string) (*Turn, []Span, error) {
	var t Turn
	err := s.db.QueryRow(`
		SELECT id, session_id, started_at, COALESCE(duration_ms, 0),
		       COALESCE(transcript, ''), COALESCE(reply, ''), COALESCE(emotion_codes, ''), status
		FROM turns WHERE id = $1 AND session_id = $2
	`, turnID, sessionID).Scan(&t.ID, &t.SessionID, &t.StartedAt, &t.DurationMs,
		&t.Transcript, &t.Reply, &t.EmotionCodes, &t.Status)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, turn_id, name, started_at, duration_ms,
		       COALESCE(input, ''), COALESCE(output, ''), status, COALESCE(error_msg, '')
		FROM spans WHERE turn_id = $1 ORDER BY started_at ASC
	`, turnID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var spans []Span
	for rows.Next() {
		var sp Span
		if err = rows.Scan(&sp.ID, &sp.TurnID, &sp.Name, &sp.StartedAt, &sp.DurationMs,
			&sp.Input, &sp.Output, &sp.Status, &sp.Error); err != nil {
			return nil, nil, err
		}
		spans = append(spans, sp)
	}
	return &t, spans, rows.Err()
}
