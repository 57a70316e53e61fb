package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// LaunchArchive implements storage.LaunchArchive using PostgreSQL.
type LaunchArchive struct {
	pool *Pool
}

// NewLaunchArchive creates a new LaunchArchive.
func NewLaunchArchive(pool *Pool) *LaunchArchive {
	return &LaunchArchive{pool: pool}
}

// Compile-time interface check.
var _ storage.LaunchArchive = (*LaunchArchive)(nil)

const launchColumns = `
	token_mint, signature, platform, post_id, post_url, author,
	name, symbol, description, image_url, metadata_uri, creator_wallet,
	launched_at, created_at`

// Insert adds a launch record. Returns ErrDuplicateKey if the mint exists.
func (a *LaunchArchive) Insert(ctx context.Context, r *domain.LaunchRecord) error {
	if r == nil || r.TokenMint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO launches (
			token_mint, signature, platform, post_id, post_url, author,
			name, symbol, description, image_url, metadata_uri, creator_wallet,
			launched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := a.pool.Exec(ctx, query,
		r.TokenMint,
		r.Signature,
		string(r.Platform),
		r.PostID,
		r.PostURL,
		r.Author,
		r.Name,
		r.Symbol,
		r.Description,
		r.ImageURL,
		r.MetadataURI,
		r.CreatorWallet,
		r.LaunchedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

// GetByMint retrieves a launch by mint. Returns ErrNotFound if not exists.
func (a *LaunchArchive) GetByMint(ctx context.Context, mint string) (*domain.LaunchRecord, error) {
	query := `SELECT` + launchColumns + `
		FROM launches
		WHERE token_mint = $1
	`

	r, err := scanLaunch(a.pool.QueryRow(ctx, query, mint))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get launch by mint: %w", err)
	}
	return r, nil
}

// ListRecent returns up to limit launches ordered by launched_at DESC.
func (a *LaunchArchive) ListRecent(ctx context.Context, limit int) ([]*domain.LaunchRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT` + launchColumns + `
		FROM launches
		ORDER BY launched_at DESC, token_mint ASC
		LIMIT $1
	`

	rows, err := a.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	defer rows.Close()

	var records []*domain.LaunchRecord
	for rows.Next() {
		r, err := scanLaunch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch rows: %w", err)
	}
	return records, nil
}

// scanLaunch scans a single row into a LaunchRecord.
func scanLaunch(row pgx.Row) (*domain.LaunchRecord, error) {
	var r domain.LaunchRecord
	var platform string

	err := row.Scan(
		&r.TokenMint,
		&r.Signature,
		&platform,
		&r.PostID,
		&r.PostURL,
		&r.Author,
		&r.Name,
		&r.Symbol,
		&r.Description,
		&r.ImageURL,
		&r.MetadataURI,
		&r.CreatorWallet,
		&r.LaunchedAt,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Platform = domain.Platform(platform)
	return &r, nil
}
