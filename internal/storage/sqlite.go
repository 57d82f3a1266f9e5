// Package storage provides SQLite-based persistence for batch results.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/stratometer/internal/batch"
	"github.com/vovakirdan/stratometer/internal/match"
)

const timeLayout = "2006-01-02 15:04:05"

// Store manages the SQLite database connection for result persistence.
type Store struct {
	db *sql.DB
}

// BatchRecord is a stored batch header.
type BatchRecord struct {
	ID         string
	Game       string
	Strategies []string
	Runs       int
	Seed       int64
	Timing     match.Timing
	Matches    int
	Failed     int
	Elapsed    time.Duration
	CreatedAt  time.Time
}

// MatchRecord is one stored match without its steps.
type MatchRecord struct {
	ID            string
	BatchID       string
	Game          string
	Strategy      string
	Run           int
	Seed          int64
	Score         float64
	TimeRemaining float64
	Steps         int
	AutonPoints   float64
	TeleopPoints  float64
	EndgamePoints float64
	ErrorKind     string // empty for completed matches
	Error         string
	CreatedAt     time.Time
}

// Failed reports whether the match was aborted.
func (m MatchRecord) Failed() bool {
	return m.Error != ""
}

// FinalScore returns the stored score.
func (m MatchRecord) FinalScore() float64 {
	return m.Score
}

// PhasePoints returns the points scored by actions started in phase p.
func (m MatchRecord) PhasePoints(p match.Phase) float64 {
	switch p {
	case match.PhaseAuton:
		return m.AutonPoints
	case match.PhaseTeleop:
		return m.TeleopPoints
	case match.PhaseEndgame:
		return m.EndgamePoints
	}
	return 0
}

// StrategyStat aggregates every stored match of one strategy.
type StrategyStat struct {
	Strategy string
	Matches  int
	Failed   int
	Mean     float64
	Best     float64
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	dbPath, err := homedir.Expand(dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			strategies TEXT NOT NULL,
			runs INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			duration REAL NOT NULL,
			auton REAL NOT NULL,
			endgame_start REAL NOT NULL,
			matches INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_batches_game_id ON batches(game_id);

		CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			strategy TEXT NOT NULL,
			strategy_index INTEGER NOT NULL,
			run INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			score REAL NOT NULL,
			time_remaining REAL NOT NULL,
			steps INTEGER NOT NULL,
			auton_points REAL NOT NULL DEFAULT 0,
			teleop_points REAL NOT NULL DEFAULT 0,
			endgame_points REAL NOT NULL DEFAULT 0,
			error_kind TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_batch ON matches(batch_id, strategy_index, run);
		CREATE INDEX IF NOT EXISTS idx_matches_strategy ON matches(game_id, strategy);

		CREATE TABLE IF NOT EXISTS match_steps (
			match_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			nominal REAL NOT NULL,
			taken REAL NOT NULL,
			clipped INTEGER NOT NULL DEFAULT 0,
			phase TEXT NOT NULL,
			points REAL NOT NULL,
			score_after REAL NOT NULL,
			PRIMARY KEY (match_id, seq)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveBatch stores a batch report with every match and its full history
// in a single transaction.
func (s *Store) SaveBatch(r *batch.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := r.CreatedAt.UTC().Format(timeLayout)
	_, err = tx.Exec(
		`INSERT INTO batches
		 (id, game_id, strategies, runs, seed, duration, auton, endgame_start, matches, failed, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Game,
		strings.Join(r.Strategies, ","),
		r.Runs,
		r.Seed,
		r.Timing.Duration,
		r.Timing.Auton,
		r.Timing.EndgameStart,
		len(r.Matches),
		len(r.Failures()),
		r.Elapsed.Milliseconds(),
		created,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save batch: %w", err)
	}

	matchStmt, err := tx.Prepare(
		`INSERT INTO matches
		 (id, batch_id, game_id, strategy, strategy_index, run, seed, score, time_remaining, steps,
		  auton_points, teleop_points, endgame_points, error_kind, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare match insert: %w", err)
	}
	defer matchStmt.Close()

	stepStmt, err := tx.Prepare(
		`INSERT INTO match_steps
		 (match_id, seq, action, nominal, taken, clipped, phase, points, score_after)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare step insert: %w", err)
	}
	defer stepStmt.Close()

	index := make(map[string]int, len(r.Strategies))
	for i, name := range r.Strategies {
		index[name] = i
	}

	for _, m := range r.Matches {
		res := m.Result
		var kind, msg string
		if err := res.Err(); err != nil {
			msg = err.Error()
			if k := match.KindOf(err); k != 0 {
				kind = k.String()
			}
		}
		if _, err := matchStmt.Exec(
			m.ID,
			r.ID,
			r.Game,
			m.Strategy,
			index[m.Strategy],
			m.Run,
			m.Seed,
			res.FinalScore(),
			res.TimeRemaining(),
			res.Len(),
			res.PhasePoints(match.PhaseAuton),
			res.PhasePoints(match.PhaseTeleop),
			res.PhasePoints(match.PhaseEndgame),
			kind,
			msg,
			created,
		); err != nil {
			return fmt.Errorf("storage: cannot save match %s: %w", m.ID, err)
		}

		for seq, st := range res.History() {
			if _, err := stepStmt.Exec(
				m.ID, seq, st.Action, st.Nominal, st.Taken, st.Clipped,
				st.Phase.String(), st.Points, st.ScoreAfter,
			); err != nil {
				return fmt.Errorf("storage: cannot save step %d of match %s: %w", seq, m.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit batch: %w", err)
	}
	return nil
}

const batchColumns = `id, game_id, strategies, runs, seed, duration, auton, endgame_start,
		        matches, failed, elapsed_ms, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (BatchRecord, error) {
	var b BatchRecord
	var strategies string
	var elapsedMS int64
	var createdAt any
	err := row.Scan(
		&b.ID,
		&b.Game,
		&strategies,
		&b.Runs,
		&b.Seed,
		&b.Timing.Duration,
		&b.Timing.Auton,
		&b.Timing.EndgameStart,
		&b.Matches,
		&b.Failed,
		&elapsedMS,
		&createdAt,
	)
	if err != nil {
		return b, err
	}
	if strategies != "" {
		b.Strategies = strings.Split(strategies, ",")
	}
	b.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

// RecentBatches retrieves the most recent batches, newest first.
func (s *Store) RecentBatches(limit int) ([]BatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+batchColumns+`
		 FROM batches
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchRecord
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return batches, nil
}

// BatchByID retrieves one batch. It returns nil if the batch does not exist.
// A unique ID prefix is accepted.
func (s *Store) BatchByID(id string) (*BatchRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+batchColumns+`
		 FROM batches
		 WHERE id LIKE ? || '%'
		 LIMIT 2`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query batch: %w", err)
	}
	defer rows.Close()

	var found []BatchRecord
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		found = append(found, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("storage: batch id %q is ambiguous", id)
}

const matchColumns = `id, batch_id, game_id, strategy, run, seed, score, time_remaining, steps,
		        auton_points, teleop_points, endgame_points, error_kind, error, created_at`

func scanMatch(row scanner) (MatchRecord, error) {
	var m MatchRecord
	var createdAt any
	err := row.Scan(
		&m.ID,
		&m.BatchID,
		&m.Game,
		&m.Strategy,
		&m.Run,
		&m.Seed,
		&m.Score,
		&m.TimeRemaining,
		&m.Steps,
		&m.AutonPoints,
		&m.TeleopPoints,
		&m.EndgamePoints,
		&m.ErrorKind,
		&m.Error,
		&createdAt,
	)
	if err != nil {
		return m, err
	}
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// MatchesForBatch retrieves the matches of a batch in plan order.
// An empty strategy returns every strategy's matches.
func (s *Store) MatchesForBatch(batchID, strategy string) ([]MatchRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE batch_id = ? AND (? = '' OR strategy = ?)
		 ORDER BY strategy_index, run`,
		batchID, strategy, strategy,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var matches []MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return matches, nil
}

// MatchByID retrieves one match. It returns nil if the match does not exist.
func (s *Store) MatchByID(id string) (*MatchRecord, error) {
	m, err := scanMatch(s.db.QueryRow(
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE id = ?`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	return &m, nil
}

// MatchSteps retrieves the recorded history of a match in order.
func (s *Store) MatchSteps(matchID string) ([]match.Step, error) {
	rows, err := s.db.Query(
		`SELECT action, nominal, taken, clipped, phase, points, score_after
		 FROM match_steps
		 WHERE match_id = ?
		 ORDER BY seq`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query steps: %w", err)
	}
	defer rows.Close()

	var steps []match.Step
	for rows.Next() {
		var st match.Step
		var phase string
		if err := rows.Scan(&st.Action, &st.Nominal, &st.Taken, &st.Clipped, &phase, &st.Points, &st.ScoreAfter); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		if st.Phase, err = match.ParsePhase(phase); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		steps = append(steps, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return steps, nil
}

// StrategyStats aggregates all stored matches of a game per strategy,
// ordered by mean score descending. Failed matches count toward Failed only.
func (s *Store) StrategyStats(gameID string) ([]StrategyStat, error) {
	rows, err := s.db.Query(
		`SELECT strategy,
		        COUNT(*),
		        SUM(CASE WHEN error != '' THEN 1 ELSE 0 END),
		        AVG(CASE WHEN error = '' THEN score END),
		        MAX(CASE WHEN error = '' THEN score END)
		 FROM matches
		 WHERE game_id = ?
		 GROUP BY strategy
		 ORDER BY 4 DESC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query strategy stats: %w", err)
	}
	defer rows.Close()

	var stats []StrategyStat
	for rows.Next() {
		var st StrategyStat
		var mean, best sql.NullFloat64
		if err := rows.Scan(&st.Strategy, &st.Matches, &st.Failed, &mean, &best); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		st.Mean = mean.Float64
		st.Best = best.Float64
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// DeleteBatch removes a batch with all of its matches and steps.
func (s *Store) DeleteBatch(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		"DELETE FROM match_steps WHERE match_id IN (SELECT id FROM matches WHERE batch_id = ?)",
		"DELETE FROM matches WHERE batch_id = ?",
		"DELETE FROM batches WHERE id = ?",
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("storage: cannot delete batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit delete: %w", err)
	}
	return nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(timeLayout, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
