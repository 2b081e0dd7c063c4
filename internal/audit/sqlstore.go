package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/toolgate/internal/model"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY,
	ts          INTEGER NOT NULL,
	level       TEXT    NOT NULL,
	agent_id    TEXT    NOT NULL,
	tool        TEXT    NOT NULL,
	target      TEXT    NOT NULL,
	effect      TEXT    NOT NULL,
	reason      TEXT    NOT NULL DEFAULT '',
	duration_ns INTEGER NOT NULL,
	dry_run     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts);
CREATE INDEX IF NOT EXISTS idx_audit_agent ON audit_log(agent_id);
CREATE INDEX IF NOT EXISTS idx_audit_tool ON audit_log(tool);
CREATE INDEX IF NOT EXISTS idx_audit_effect ON audit_log(effect);
`

// SQLStore persists entries in an embedded SQLite database with indexed
// columns for every filter field. database/sql serializes access to the
// single connection; concurrent gates may share one instance.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) the database at dsn and applies the
// schema.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping sqlite: %w", err)
	}
	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Write inserts one entry.
func (s *SQLStore) Write(ctx context.Context, entry StoredLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log
			(id, ts, level, agent_id, tool, target, effect, reason, duration_ns, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UnixMilli(),
		string(entry.Level),
		entry.AgentID,
		string(entry.Tool),
		entry.Target,
		string(entry.Decision.Effect),
		entry.Decision.Reason,
		int64(entry.Duration),
		boolToInt(entry.DryRun),
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// Query returns matching entries in timestamp order.
func (s *SQLStore) Query(ctx context.Context, f Filter) ([]StoredLogEntry, error) {
	where, args := whereClause(f)
	q := `SELECT id, ts, level, agent_id, tool, target, effect, reason, duration_ns, dry_run
		FROM audit_log` + where + ` ORDER BY ts, id LIMIT ? OFFSET ?`
	args = append(args, f.limit(), f.offset())

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var entries []StoredLogEntry
	for rows.Next() {
		var (
			e          StoredLogEntry
			ts         int64
			level      string
			tool       string
			effect     string
			durationNS int64
			dryRun     int
		)
		if err := rows.Scan(&e.ID, &ts, &level, &e.AgentID, &tool, &e.Target,
			&effect, &e.Decision.Reason, &durationNS, &dryRun); err != nil {
			return nil, fmt.Errorf("audit: scan row: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		e.Level = Level(level)
		e.Tool = model.Tool(tool)
		e.Decision.Effect = model.Effect(effect)
		e.Duration = time.Duration(durationNS)
		e.DryRun = dryRun != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of matching entries, ignoring pagination.
func (s *SQLStore) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}

func whereClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AgentID != "" {
		conds = append(conds, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.Tool != "" {
		conds = append(conds, "tool = ?")
		args = append(args, string(f.Tool))
	}
	if f.Effect != "" {
		conds = append(conds, "effect = ?")
		args = append(args, string(f.Effect))
	}
	if !f.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.From.UnixMilli())
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.To.UnixMilli())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
