// Package mappingstore persists the library of confirmed column mappings.
// The matcher consumes it as both a bypass (confirmed headers skip the AI
// backend) and as few-shot context for the prompt.
package mappingstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"colmatch/internal/domain"
)

// Store is a SQLite-backed mapping library. Source columns are unique
// case-insensitively; confirming a mapping for an already-known source
// column replaces the previous pairing.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open initializes the database at the given path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS column_mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_column TEXT NOT NULL,
		target_column TEXT NOT NULL,
		context TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_column COLLATE NOCASE)
	);
	CREATE INDEX IF NOT EXISTS idx_mappings_target ON column_mappings(target_column);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put confirms a mapping, replacing any existing pairing for the same
// source column (case-insensitive).
func (s *Store) Put(m domain.ColumnMapping) error {
	if !m.IsValid() {
		return fmt.Errorf("mapping %q -> %q is invalid", m.SourceColumn, m.TargetColumn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO column_mappings (source_column, target_column, context)
		VALUES (?, ?, ?)
		ON CONFLICT(source_column COLLATE NOCASE) DO UPDATE SET
			target_column = excluded.target_column,
			context = excluded.context`,
		strings.TrimSpace(m.SourceColumn),
		strings.TrimSpace(m.TargetColumn),
		strings.TrimSpace(m.Context))
	if err != nil {
		return fmt.Errorf("failed to store mapping: %w", err)
	}
	return nil
}

// List returns all confirmed mappings ordered by source column.
func (s *Store) List() ([]domain.ColumnMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT source_column, target_column, context
		FROM column_mappings
		ORDER BY source_column COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var out []domain.ColumnMapping
	for rows.Next() {
		var m domain.ColumnMapping
		if err := rows.Scan(&m.SourceColumn, &m.TargetColumn, &m.Context); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes the mapping for a source column (case-insensitive).
// It reports whether a mapping was removed.
func (s *Store) Delete(sourceColumn string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM column_mappings
		WHERE source_column = ? COLLATE NOCASE`,
		strings.TrimSpace(sourceColumn))
	if err != nil {
		return false, fmt.Errorf("failed to delete mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordConfirmed stores every result that used an existing mapping or was
// confirmed by the caller, so later runs can bypass the backend for those
// headers.
func (s *Store) RecordConfirmed(results []domain.ColumnMatchingResult) error {
	for _, r := range results {
		if !r.IsValid() || r.ConfidencePercentage < 100 {
			continue
		}
		m := domain.ColumnMapping{
			TargetColumn: r.MatchedTargetHeader,
			SourceColumn: r.SourceHeader,
		}
		if err := s.Put(m); err != nil {
			return err
		}
	}
	return nil
}

// mappingFile is the YAML import/export shape.
type mappingFile struct {
	Mappings []domain.ColumnMapping `yaml:"mappings"`
}

// ImportYAML loads mappings from a YAML file and confirms each valid entry.
// It returns the number of mappings imported; invalid entries are skipped.
func (s *Store) ImportYAML(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	imported := 0
	for _, m := range file.Mappings {
		if !m.IsValid() {
			continue
		}
		if err := s.Put(m); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// ExportYAML writes all confirmed mappings to a YAML file.
func (s *Store) ExportYAML(path string) error {
	mappings, err := s.List()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(mappingFile{Mappings: mappings})
	if err != nil {
		return fmt.Errorf("failed to marshal mappings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
