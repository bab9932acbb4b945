package db

import (
	"context"
	"fmt"
	"time"

	"github.com/david/termin-watch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type ListParams struct {
	Outcome      models.Outcome
	Since        time.Time
	WithDateOnly bool // only cycles that extracted a date
	Limit        int
	Offset       int
}

const selectCols = `id, started_at, finished_at, outcome, policy, strategy, detail, candidates,
	found, last_known, window_days, in_window, is_new, notified, failed_step, error, mail_error`

func scanCycle(scan func(dest ...interface{}) error) (models.Cycle, error) {
	var c models.Cycle
	var outcome string
	var found, lastKnown *time.Time

	err := scan(
		&c.ID, &c.StartedAt, &c.FinishedAt, &outcome, &c.Policy, &c.Strategy, &c.Detail, &c.Candidates,
		&found, &lastKnown, &c.WindowDays, &c.InWindow, &c.IsNew, &c.Notified, &c.FailedStep, &c.Error, &c.MailError,
	)
	if err != nil {
		return c, err
	}

	c.Outcome = models.Outcome(outcome)
	c.Found = dateFromColumn(found)
	c.LastKnown = dateFromColumn(lastKnown)
	return c, nil
}

// DATE columns come back as midnight UTC.
func dateFromColumn(t *time.Time) *models.Date {
	if t == nil {
		return nil
	}
	d := models.DateOf(t.UTC())
	return &d
}

func dateColumn(d *models.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

// RecordCycle inserts one cycle report.
func (s *Store) RecordCycle(ctx context.Context, c models.Cycle) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cycles (`+selectCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`,
		c.ID, c.StartedAt, c.FinishedAt, string(c.Outcome), c.Policy, c.Strategy, c.Detail, c.Candidates,
		dateColumn(c.Found), dateColumn(c.LastKnown), c.WindowDays, c.InWindow, c.IsNew, c.Notified,
		c.FailedStep, c.Error, c.MailError,
	)
	if err != nil {
		return fmt.Errorf("insert cycle %s: %w", c.ID, err)
	}
	return nil
}

// buildCycleFilter returns the WHERE clause and its arguments.
func buildCycleFilter(params ListParams) (string, []interface{}) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.Outcome != "" {
		where += fmt.Sprintf(" AND outcome = $%d", argIdx)
		args = append(args, string(params.Outcome))
		argIdx++
	}
	if !params.Since.IsZero() {
		where += fmt.Sprintf(" AND started_at >= $%d", argIdx)
		args = append(args, params.Since)
		argIdx++
	}
	if params.WithDateOnly {
		where += " AND found IS NOT NULL"
	}
	return where, args
}

func (s *Store) ListCycles(ctx context.Context, params ListParams) ([]models.Cycle, error) {
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where, args := buildCycleFilter(params)
	sql := fmt.Sprintf(`
		SELECT %s
		FROM cycles
		%s
		ORDER BY started_at DESC
		LIMIT $%d OFFSET $%d
	`, selectCols, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.Cycle
	for rows.Next() {
		c, err := scanCycle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, id uuid.UUID) (*models.Cycle, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM cycles
		WHERE id = $1
	`, selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	c, err := scanCycle(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &c, nil
}

// Stats summarises the whole history.
type Stats struct {
	Total         int                    `json:"total"`
	Outcomes      map[models.Outcome]int `json:"outcomes"`
	EarliestSeen  *models.Date           `json:"earliest_seen,omitempty"`
	LastFoundAt   *time.Time             `json:"last_found_at,omitempty"`
	Notifications int                    `json:"notifications"`
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Outcomes: map[models.Outcome]int{}}

	var earliest, lastFound *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE notified),
		       MIN(found),
		       MAX(started_at) FILTER (WHERE found IS NOT NULL)
		FROM cycles
	`).Scan(&stats.Total, &stats.Notifications, &earliest, &lastFound)
	if err != nil {
		return nil, fmt.Errorf("cycle stats: %w", err)
	}
	stats.EarliestSeen = dateFromColumn(earliest)
	stats.LastFoundAt = lastFound

	rows, err := s.pool.Query(ctx, "SELECT outcome, COUNT(*) FROM cycles GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("outcome counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats.Outcomes[models.Outcome(outcome)] = count
	}
	return stats, rows.Err()
}
