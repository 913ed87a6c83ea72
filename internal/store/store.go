// Package store persists user-scoped state in SQLite: profiles, saved
// schools, search history and cached fit classifications. One connection,
// WAL journal, and a mutex around writes keeps it safe without a server.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store wraps the SQLite database holding all per-user state.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// Profile is the recruit's own background, fed into the LLM prompts.
type Profile struct {
	Name            string            `json:"name,omitempty"`
	GraduationYear  int               `json:"graduation_year,omitempty"`
	Position        string            `json:"position,omitempty"`
	HighSchool      string            `json:"high_school,omitempty"`
	AthleticMetrics map[string]string `json:"athletic_metrics,omitempty"`
	AcademicInfo    map[string]string `json:"academic_info,omitempty"`
}

// Classification is one cached school-fit result for a user.
type Classification struct {
	UnitID        int64   `json:"unitid"`
	Category      string  `json:"category"`
	AthleticScore float64 `json:"athletic_score"`
	AcademicScore float64 `json:"academic_score"`
	OverallScore  float64 `json:"overall_score"`
}

// Open initializes the database at path, creating the schema if needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("store initialized", zap.String("path", path))
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL DEFAULT '{}',
			search_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS saved_schools (
			user_id TEXT NOT NULL,
			unitid INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, unitid)
		)`,
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			state TEXT NOT NULL,
			search_count INTEGER NOT NULL DEFAULT 1,
			first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, state)
		)`,
		`CREATE TABLE IF NOT EXISTS classifications (
			user_id TEXT NOT NULL,
			unitid INTEGER NOT NULL,
			category TEXT NOT NULL,
			athletic_score REAL NOT NULL,
			academic_score REAL NOT NULL,
			overall_score REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, unitid)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser creates a user with an empty profile and returns the new id.
func (s *Store) CreateUser() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO users (id) VALUES (?)`, id); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// EnsureUser creates the user row if it does not exist yet.
func (s *Store) EnsureUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO users (id) VALUES (?)`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// SaveProfile replaces the user's profile.
func (s *Store) SaveProfile(userID string, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE users SET profile = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown user: %s", userID)
	}
	return nil
}

// GetProfile loads the user's profile. The second return value reports
// whether the user exists.
func (s *Store) GetProfile(userID string) (Profile, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT profile FROM users WHERE id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("failed to load profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, false, fmt.Errorf("failed to parse profile: %w", err)
	}
	return p, true, nil
}

// AddSavedSchool adds a school to the user's saved list. Idempotent.
func (s *Store) AddSavedSchool(userID string, unitID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO saved_schools (user_id, unitid) VALUES (?, ?)`,
		userID, unitID,
	)
	if err != nil {
		return fmt.Errorf("failed to save school: %w", err)
	}
	return nil
}

// RemoveSavedSchool removes a school from the user's saved list. Removing a
// school that was never saved is not an error.
func (s *Store) RemoveSavedSchool(userID string, unitID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`DELETE FROM saved_schools WHERE user_id = ? AND unitid = ?`,
		userID, unitID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove saved school: %w", err)
	}
	return nil
}

// SavedSchools lists the user's saved school ids, oldest save first.
func (s *Store) SavedSchools(userID string) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT unitid FROM saved_schools WHERE user_id = ? ORDER BY created_at, unitid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved schools: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan saved school: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TrackSearch records one executed search: the user's lifetime total goes up
// by one, and repeats of the same serialized state bump the per-state count
// instead of inserting a new log row.
func (s *Store) TrackSearch(userID string, state json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to track search: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE users SET search_count = search_count + 1 WHERE id = ?`,
		userID,
	); err != nil {
		return fmt.Errorf("failed to track search: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO searches (id, user_id, state) VALUES (?, ?, ?)
		ON CONFLICT (user_id, state) DO UPDATE SET
			search_count = search_count + 1,
			last_seen = CURRENT_TIMESTAMP`,
		uuid.NewString(), userID, string(state),
	); err != nil {
		return fmt.Errorf("failed to track search: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to track search: %w", err)
	}
	return nil
}

// TotalSearches returns the user's lifetime search count.
func (s *Store) TotalSearches(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT search_count FROM users WHERE id = ?`, userID,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return n, nil
}

// SearchCount returns how many times the user ran the given search state.
func (s *Store) SearchCount(userID string, state json.RawMessage) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT search_count FROM searches WHERE user_id = ? AND state = ?`,
		userID, string(state),
	).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return n, nil
}

// RecentSearches returns the user's most recently run search states.
func (s *Store) RecentSearches(userID string, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT state FROM searches WHERE user_id = ? ORDER BY last_seen DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

// SaveClassification caches a fit classification, replacing any previous one
// for the same user and school.
func (s *Store) SaveClassification(userID string, c Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO classifications (user_id, unitid, category, athletic_score, academic_score, overall_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, unitid) DO UPDATE SET
			category = excluded.category,
			athletic_score = excluded.athletic_score,
			academic_score = excluded.academic_score,
			overall_score = excluded.overall_score,
			created_at = CURRENT_TIMESTAMP`,
		userID, c.UnitID, c.Category, c.AthleticScore, c.AcademicScore, c.OverallScore,
	)
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	return nil
}

// GetClassification loads the cached classification for one school.
func (s *Store) GetClassification(userID string, unitID int64) (Classification, bool, error) {
	var c Classification
	err := s.db.QueryRow(`
		SELECT unitid, category, athletic_score, academic_score, overall_score
		FROM classifications WHERE user_id = ? AND unitid = ?`,
		userID, unitID,
	).Scan(&c.UnitID, &c.Category, &c.AthleticScore, &c.AcademicScore, &c.OverallScore)
	if err == sql.ErrNoRows {
		return Classification{}, false, nil
	}
	if err != nil {
		return Classification{}, false, fmt.Errorf("failed to load classification: %w", err)
	}
	return c, true, nil
}

// Classifications lists all cached classifications for a user.
func (s *Store) Classifications(userID string) ([]Classification, error) {
	rows, err := s.db.Query(`
		SELECT unitid, category, athletic_score, academic_score, overall_score
		FROM classifications WHERE user_id = ? ORDER BY unitid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	var out []Classification
	for rows.Next() {
		var c Classification
		if err := rows.Scan(&c.UnitID, &c.Category, &c.AthleticScore, &c.AcademicScore, &c.OverallScore); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
