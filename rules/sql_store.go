package rules

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLRuleStore implements RuleStore over the crop_rules table.
// Queries use $N placeholders, each bound once in order, so the same
// statements run on PostgreSQL (lib/pq) and SQLite (go-sqlite3).
type SQLRuleStore struct {
	db *sql.DB
}

// NewSQLRuleStore creates a database-backed RuleStore
func NewSQLRuleStore(db *sql.DB) *SQLRuleStore {
	return &SQLRuleStore{db: db}
}

const ruleColumns = `id, name, expression, priority, crops, active, created_at, updated_at`

// Add inserts a new rule into the database
func (s *SQLRuleStore) Add(rule *Rule) error {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM crop_rules WHERE id = $1`, rule.ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrRuleExists)
	}

	crops, err := json.Marshal(rule.Crops)
	if err != nil {
		return fmt.Errorf("failed to encode crops: %w", err)
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO crop_rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rule.ID, rule.Name, rule.Expression, rule.Priority, string(crops), rule.Active,
		rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID
func (s *SQLRuleStore) Get(id string) (*Rule, error) {
	row := s.db.QueryRow(`SELECT `+ruleColumns+` FROM crop_rules WHERE id = $1`, id)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

func (s *SQLRuleStore) List() ([]*Rule, error) {
	return s.query(`SELECT ` + ruleColumns + ` FROM crop_rules ORDER BY priority ASC, id ASC`)
}

// ListActive returns active rules in evaluation order
func (s *SQLRuleStore) ListActive() ([]*Rule, error) {
	return s.query(`SELECT ` + ruleColumns + ` FROM crop_rules WHERE active = $1 ORDER BY priority ASC, id ASC`, true)
}

func (s *SQLRuleStore) query(q string, args ...any) ([]*Rule, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rulesList = append(rulesList, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rulesList, nil
}

// Update modifies an existing rule; CreatedAt is left as stored
func (s *SQLRuleStore) Update(rule *Rule) error {
	existing, err := s.Get(rule.ID)
	if err != nil {
		return err
	}

	crops, err := json.Marshal(rule.Crops)
	if err != nil {
		return fmt.Errorf("failed to encode crops: %w", err)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()

	result, err := s.db.Exec(`
		UPDATE crop_rules
		SET name = $1, expression = $2, priority = $3, crops = $4, active = $5, updated_at = $6
		WHERE id = $7
	`, rule.Name, rule.Expression, rule.Priority, string(crops), rule.Active, rule.UpdatedAt, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrRuleNotFound)
	}

	return nil
}

// Delete removes a rule from the database
func (s *SQLRuleStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM crop_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var (
		r     Rule
		crops string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Expression, &r.Priority, &crops, &r.Active,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(crops), &r.Crops); err != nil {
		return nil, fmt.Errorf("failed to decode crops for rule %s: %w", r.ID, err)
	}
	return &r, nil
}
