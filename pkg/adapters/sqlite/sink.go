package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/google/uuid"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	submitted_at TEXT NOT NULL,
	answers_json TEXT NOT NULL,
	path_json    TEXT NOT NULL,
	path_taken   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS responses_submitted_at ON responses (submitted_at);
`

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Sink implements ports.SubmissionSink and ports.ResponseReader on SQLite.
type Sink struct {
	db          *sql.DB
	logger      *slog.Logger
	questionIDs []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets a custom structured logger for the sink.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithQuestionIDs fixes the response columns returned by ListResponses.
// Without it, columns are the question ids found in stored paths.
func WithQuestionIDs(ids []string) Option {
	return func(s *Sink) {
		s.questionIDs = ids
	}
}

// Open creates a Sink backed by the SQLite database at dsn and creates the
// responses table if needed.
func Open(dsn string, opts ...Option) (*Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Sink{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// applyPragmas configures SQLite for a single process writer.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Submit inserts one response row.
func (s *Sink) Submit(ctx context.Context, sub *domain.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	path, err := json.Marshal(sub.Path)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (id, session_id, submitted_at, answers_json, path_json, path_taken) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sub.SessionID, sub.Timestamp.UTC().Format(timeLayout), string(answers), string(path), sub.PathString(),
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	s.logger.Debug("response stored", "id", id, "session_id", sub.SessionID)
	return nil
}

// ListResponses returns every stored response, oldest first.
func (s *Sink) ListResponses(ctx context.Context) ([]domain.ResponseRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, submitted_at, answers_json, path_json FROM responses ORDER BY submitted_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		var (
			sub                domain.Submission
			ts, answers, paths string
		)
		if err := rows.Scan(&sub.SessionID, &ts, &answers, &paths); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if sub.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		if err := json.Unmarshal([]byte(paths), &sub.Path); err != nil {
			return nil, fmt.Errorf("decode path: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := s.questionIDs
	if len(columns) == 0 {
		columns = pathColumns(subs)
	}
	out := make([]domain.ResponseRow, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.Row(columns))
	}
	return out, nil
}

// Count returns the number of stored responses.
func (s *Sink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *Sink) Close() error {
	return s.db.Close()
}

func pathColumns(subs []*domain.Submission) []string {
	seen := map[string]bool{}
	var ids []string
	for _, sub := range subs {
		for _, p := range sub.Path {
			if !seen[p.NodeID] {
				seen[p.NodeID] = true
				ids = append(ids, p.NodeID)
			}
		}
	}
	return ids
}
