package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MaxListLimit caps ListRecent.
const MaxListLimit = 100

// VerificationStore implements domain.VerificationStore using PostgreSQL.
type VerificationStore struct {
	db DBTX
}

// Compile-time check to ensure VerificationStore implements domain.VerificationStore.
var _ domain.VerificationStore = (*VerificationStore)(nil)

// NewVerificationStore creates a new VerificationStore instance.
func NewVerificationStore(db DBTX) *VerificationStore {
	return &VerificationStore{db: db}
}

const insertVerification = `
INSERT INTO verifications (id, input, standardized, valid, message, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectVerification = `
SELECT id, input, standardized, valid, message, error, created_at
FROM verifications`

// Create stores v, assigning ID and CreatedAt when unset.
func (s *VerificationStore) Create(ctx context.Context, v *domain.Verification) error {
	const op = "verification.create"

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	input, err := json.Marshal(v.Input)
	if err != nil {
		return domain.Internal(err, op, "failed to encode input address")
	}

	var standardized []byte
	if v.Standardized != nil {
		standardized, err = json.Marshal(v.Standardized)
		if err != nil {
			return domain.Internal(err, op, "failed to encode standardized address")
		}
	}

	_, err = s.db.Exec(ctx, insertVerification,
		v.ID,
		input,
		standardized,
		v.Verdict.Valid,
		v.Verdict.Message,
		v.Error,
		v.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Errorf(domain.ECONFLICT, op, "verification already exists: %s", v.ID)
		}
		return domain.Internal(err, op, "failed to insert verification")
	}

	return nil
}

// Get retrieves one verification by ID.
func (s *VerificationStore) Get(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	const op = "verification.get"

	row := s.db.QueryRow(ctx, selectVerification+` WHERE id = $1`, id)
	v, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "verification", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get verification")
	}

	return v, nil
}

// ListRecent returns up to limit verifications, newest first.
func (s *VerificationStore) ListRecent(ctx context.Context, limit int) ([]*domain.Verification, error) {
	const op = "verification.list"

	if limit <= 0 || limit > MaxListLimit {
		return nil, domain.Errorf(domain.EINVALID, op, "limit must be between 1 and %d", MaxListLimit)
	}

	rows, err := s.db.Query(ctx, selectVerification+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list verifications")
	}
	defer rows.Close()

	items := make([]*domain.Verification, 0, limit)
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan verification")
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate verifications")
	}

	return items, nil
}

func scanVerification(row pgx.Row) (*domain.Verification, error) {
	var (
		v            domain.Verification
		input        []byte
		standardized []byte
	)

	err := row.Scan(
		&v.ID,
		&input,
		&standardized,
		&v.Verdict.Valid,
		&v.Verdict.Message,
		&v.Error,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Input = &address.Address{}
	if err := json.Unmarshal(input, v.Input); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if standardized != nil {
		v.Standardized = &address.Address{}
		if err := json.Unmarshal(standardized, v.Standardized); err != nil {
			return nil, fmt.Errorf("decode standardized: %w", err)
		}
	}

	return &v, nil
}

// DeleteBefore removes records created before cutoff and reports how many
// were deleted.
func (s *VerificationStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM verifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, domain.Internal(err, "verification.prune", "failed to delete old verifications")
	}
	return tag.RowsAffected(), nil
}
