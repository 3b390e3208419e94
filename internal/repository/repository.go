package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freelance/notifier/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists user settings and notification filters. The
// mutual exclusivity of the two filter shapes per (user, host) is kept
// at this level: keyword rows are exactly the rows with a non-empty
// keywords column.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS bot_user (
	user_id BIGINT PRIMARY KEY,
	active BOOLEAN NOT NULL DEFAULT FALSE,
	email TEXT NOT NULL DEFAULT '',
	email_active BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS job_filter (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	host TEXT NOT NULL DEFAULT '',
	categories TEXT NOT NULL DEFAULT '',
	subcategories TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '',
	last_job_url TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_job_filter_user_id ON job_filter (user_id);
`

// Init creates the schema when it does not exist yet.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Users returns the settings of every registered user.
func (r *Repository) Users(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, active, email, email_active FROM bot_user`)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Active, &u.Email, &u.EmailActive); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// SaveUser upserts one user's settings.
func (r *Repository) SaveUser(ctx context.Context, u domain.User) error {
	query := `
	INSERT INTO bot_user (user_id, active, email, email_active)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id)
	DO UPDATE SET active = $2, email = $3, email_active = $4`
	if _, err := r.db.Exec(ctx, query, u.ID, u.Active, u.Email, u.EmailActive); err != nil {
		return fmt.Errorf("failed to save user %d: %w", u.ID, err)
	}
	return nil
}

// DeleteUser removes the user together with all their filters.
func (r *Repository) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM job_filter WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete filters of user %d: %w", userID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bot_user WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return tx.Commit(ctx)
}

// Filter returns the filter of the given shape for (user, host), or nil
// when none is saved.
func (r *Repository) Filter(ctx context.Context, userID int64, host domain.Host, kind domain.FilterKind) (*domain.Filter, error) {
	query := `
	SELECT categories, subcategories, keywords, last_job_url
	FROM job_filter
	WHERE user_id = $1 AND host = $2 AND ` + kindPredicate(kind)

	var categories, subcategories string
	f := domain.Filter{UserID: userID, Host: host}
	err := r.db.QueryRow(ctx, query, userID, host.String()).
		Scan(&categories, &subcategories, &f.Keywords, &f.LastJobURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s filter of user %d: %w", kind, userID, err)
	}

	f.CategoryIDs = splitIDList(categories)
	f.SubcategoryIDs = splitIDList(subcategories)
	return &f, nil
}

// Filters returns every filter of one user across hosts and shapes.
func (r *Repository) Filters(ctx context.Context, userID int64) ([]domain.Filter, error) {
	rows, err := r.db.Query(ctx, `
	SELECT host, categories, subcategories, keywords, last_job_url
	FROM job_filter
	WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load filters of user %d: %w", userID, err)
	}
	defer rows.Close()

	var filters []domain.Filter
	for rows.Next() {
		var host, categories, subcategories string
		f := domain.Filter{UserID: userID}
		if err := rows.Scan(&host, &categories, &subcategories, &f.Keywords, &f.LastJobURL); err != nil {
			return nil, fmt.Errorf("failed to scan filter: %w", err)
		}
		f.Host = domain.Host(host)
		f.CategoryIDs = splitIDList(categories)
		f.SubcategoryIDs = splitIDList(subcategories)
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate filters: %w", err)
	}
	return filters, nil
}

// SaveFilter inserts or updates the row matching the filter's shape.
// Saving a keyword filter clears the id columns and vice versa, so a row
// never mixes both shapes.
func (r *Repository) SaveFilter(ctx context.Context, f domain.Filter) error {
	categories := strings.Join(f.CategoryIDs, ",")
	subcategories := strings.Join(f.SubcategoryIDs, ",")
	if f.Kind() == domain.FilterKeywords {
		categories, subcategories = "", ""
	}

	existing, err := r.Filter(ctx, f.UserID, f.Host, f.Kind())
	if err != nil {
		return err
	}

	if existing == nil {
		query := `
		INSERT INTO job_filter (user_id, host, categories, subcategories, keywords, last_job_url)
		VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.db.Exec(ctx, query,
			f.UserID, f.Host.String(), categories, subcategories, f.Keywords, f.LastJobURL); err != nil {
			return fmt.Errorf("failed to insert filter: %w", err)
		}
		return nil
	}

	query := `
	UPDATE job_filter
	SET categories = $3, subcategories = $4, keywords = $5, last_job_url = $6
	WHERE user_id = $1 AND host = $2 AND ` + kindPredicate(f.Kind())
	if _, err := r.db.Exec(ctx, query,
		f.UserID, f.Host.String(), categories, subcategories, f.Keywords, f.LastJobURL); err != nil {
		return fmt.Errorf("failed to update filter: %w", err)
	}
	return nil
}

// DeleteFilter removes the filter of one shape for (user, host).
func (r *Repository) DeleteFilter(ctx context.Context, userID int64, host domain.Host, kind domain.FilterKind) error {
	query := `DELETE FROM job_filter WHERE user_id = $1 AND host = $2 AND ` + kindPredicate(kind)
	if _, err := r.db.Exec(ctx, query, userID, host.String()); err != nil {
		return fmt.Errorf("failed to delete %s filter of user %d: %w", kind, userID, err)
	}
	return nil
}

func kindPredicate(kind domain.FilterKind) string {
	if kind == domain.FilterKeywords {
		return `keywords <> ''`
	}
	return `keywords = ''`
}

func splitIDList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
