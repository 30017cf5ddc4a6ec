package community

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore implements PollStore, CreditStore and Log with sqlx. Statements
// use $N placeholders, so they run unchanged on PostgreSQL and SQLite.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type pollRow struct {
	ID        string    `db:"id"`
	Question  string    `db:"question"`
	Options   string    `db:"options"`
	CreatedAt time.Time `db:"created_at"`
}

type voteCount struct {
	PollID string `db:"poll_id"`
	Option int    `db:"option_index"`
	Count  int    `db:"n"`
}

func (r pollRow) poll() (Poll, error) {
	var opts []string
	if err := json.Unmarshal([]byte(r.Options), &opts); err != nil {
		return Poll{}, fmt.Errorf("failed to decode options of poll %s: %w", r.ID, err)
	}
	return Poll{ID: r.ID, Question: r.Question, Options: opts, Votes: make([]int, len(opts)), CreatedAt: r.CreatedAt}, nil
}

func (s *SQLStore) CreatePoll(ctx context.Context, p Poll) error {
	opts, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO polls (id, question, options, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Question, string(opts), p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (s *SQLStore) GetPoll(ctx context.Context, id string) (Poll, error) {
	var row pollRow
	err := s.db.GetContext(ctx, &row, `SELECT id, question, options, created_at FROM polls WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Poll{}, fmt.Errorf("poll %s: %w", id, ErrPollNotFound)
	}
	if err != nil {
		return Poll{}, fmt.Errorf("failed to get poll: %w", err)
	}

	p, err := row.poll()
	if err != nil {
		return Poll{}, err
	}

	var counts []voteCount
	err = s.db.SelectContext(ctx, &counts, `
		SELECT poll_id, option_index, COUNT(1) AS n FROM poll_votes
		WHERE poll_id = $1 GROUP BY poll_id, option_index`, id)
	if err != nil {
		return Poll{}, fmt.Errorf("failed to count votes: %w", err)
	}
	applyCounts(map[string]*Poll{p.ID: &p}, counts)
	return p, nil
}

func (s *SQLStore) ListPolls(ctx context.Context) ([]Poll, error) {
	var rows []pollRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, question, options, created_at FROM polls ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	polls := make([]Poll, len(rows))
	byID := make(map[string]*Poll, len(rows))
	for i, r := range rows {
		p, err := r.poll()
		if err != nil {
			return nil, err
		}
		polls[i] = p
		byID[p.ID] = &polls[i]
	}

	var counts []voteCount
	err = s.db.SelectContext(ctx, &counts, `
		SELECT poll_id, option_index, COUNT(1) AS n FROM poll_votes
		GROUP BY poll_id, option_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	applyCounts(byID, counts)
	return polls, nil
}

func applyCounts(polls map[string]*Poll, counts []voteCount) {
	for _, c := range counts {
		p, ok := polls[c.PollID]
		if !ok || c.Option < 0 || c.Option >= len(p.Votes) {
			continue
		}
		p.Votes[c.Option] = c.Count
	}
}

func (s *SQLStore) RecordVote(ctx context.Context, pollID, voterID string, option int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin vote: %w", err)
	}
	defer tx.Rollback()

	var polls int
	if err := tx.GetContext(ctx, &polls, `SELECT COUNT(1) FROM polls WHERE id = $1`, pollID); err != nil {
		return fmt.Errorf("failed to check poll: %w", err)
	}
	if polls == 0 {
		return fmt.Errorf("poll %s: %w", pollID, ErrPollNotFound)
	}

	// the primary key decides between concurrent votes from one voter
	res, err := tx.ExecContext(ctx, `
		INSERT INTO poll_votes (poll_id, voter_id, option_index, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, voter_id) DO NOTHING`,
		pollID, voterID, option, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("poll %s voter %s: %w", pollID, voterID, ErrAlreadyVoted)
	}
	return tx.Commit()
}

type creditRow struct {
	FarmerID  string    `db:"farmer_id"`
	Credits   int       `db:"credits"`
	Surveys   int       `db:"surveys"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r creditRow) credits() Credits {
	return Credits{FarmerID: r.FarmerID, Credits: r.Credits, Surveys: r.Surveys, UpdatedAt: r.UpdatedAt}
}

func (s *SQLStore) AddSurvey(ctx context.Context, farmerID string, reward int) (Credits, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO farmer_credits (farmer_id, credits, surveys, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (farmer_id) DO UPDATE SET
			credits = farmer_credits.credits + excluded.credits,
			surveys = farmer_credits.surveys + 1,
			updated_at = excluded.updated_at`,
		farmerID, reward, time.Now().UTC())
	if err != nil {
		return Credits{}, fmt.Errorf("failed to add credits: %w", err)
	}
	return s.Credits(ctx, farmerID)
}

func (s *SQLStore) Credits(ctx context.Context, farmerID string) (Credits, error) {
	var row creditRow
	err := s.db.GetContext(ctx, &row,
		`SELECT farmer_id, credits, surveys, updated_at FROM farmer_credits WHERE farmer_id = $1`, farmerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Credits{FarmerID: farmerID}, nil
	}
	if err != nil {
		return Credits{}, fmt.Errorf("failed to get credits: %w", err)
	}
	return row.credits(), nil
}

type eventRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// Append numbers events per kind and deletes those that fall outside the cap
func (s *SQLStore) Append(ctx context.Context, kind Kind, payload any) error {
	limit, err := capFor(kind)
	if err != nil {
		return err
	}
	ev, err := newEvent(kind, payload)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM analytics_events WHERE kind = $1`, string(kind)); err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analytics_events (id, kind, seq, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, string(kind), seq, string(ev.Payload), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", kind, err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM analytics_events WHERE kind = $1 AND seq <= $2`,
		string(kind), seq-int64(limit))
	if err != nil {
		return fmt.Errorf("failed to trim %s events: %w", kind, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Recent(ctx context.Context, kind Kind, limit int) ([]Event, error) {
	bound, err := capFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = bound
	}
	var rows []eventRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT id, kind, payload, created_at FROM analytics_events
		WHERE kind = $1 ORDER BY seq DESC LIMIT $2`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s events: %w", kind, err)
	}

	out := make([]Event, len(rows))
	for i, r := range rows {
		out[i] = Event{ID: r.ID, Kind: Kind(r.Kind), Payload: json.RawMessage(r.Payload), CreatedAt: r.CreatedAt}
	}
	return out, nil
}
