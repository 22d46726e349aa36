package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for accounts. Mutations report the
// number of affected rows so callers can detect no-op updates.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	ListByEmails(ctx context.Context, emails []string) ([]Contact, error)
	Create(ctx context.Context, account *Account) error
	UpdateByEmail(ctx context.Context, email string, patch UpdatePatch) (int64, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	AddContact(ctx context.Context, ownerEmail, contactEmail string) (int64, error)
	RemoveContact(ctx context.Context, ownerEmail, contactEmail string) (int64, error)
	TouchLastSeen(ctx context.Context, email string, seen time.Time) (int64, error)
}

// UpdatePatch carries the mutable profile fields; nil fields are left as-is.
type UpdatePatch struct {
	FirstName     *string
	LastName      *string
	Avatar        *string
	ContactEmails *[]string
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const accountColumns = `id, email, first_name, last_name, avatar, contacts,
       last_seen, password_hash, privilege, created_at, updated_at`

func (r *repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE email = $1", accountColumns)
	row := r.db.QueryRow(ctx, query, email)

	var a Account
	var avatar pgtype.Text
	var lastSeen, createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &avatar, &a.ContactEmails,
		&lastSeen, &a.PasswordHash, &a.Privilege, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if avatar.Valid {
		val := avatar.String
		a.Avatar = &val
	}
	if lastSeen.Valid {
		a.LastSeen = lastSeen.Time
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	}
	return &a, nil
}

func (r *repository) ListByEmails(ctx context.Context, emails []string) ([]Contact, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, email, first_name, last_name, avatar, last_seen, privilege
		FROM accounts
		WHERE email = ANY($1)
		ORDER BY email
	`
	rows, err := r.db.Query(ctx, query, emails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		var avatar pgtype.Text
		var lastSeen pgtype.Timestamptz
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &avatar, &lastSeen, &c.Privilege); err != nil {
			return nil, err
		}
		if avatar.Valid {
			val := avatar.String
			c.Avatar = &val
		}
		if lastSeen.Valid {
			c.LastSeen = lastSeen.Time
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO accounts (id, email, first_name, last_name, avatar, contacts,
		                      last_seen, password_hash, privilege)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	contacts := account.ContactEmails
	if contacts == nil {
		contacts = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		account.ID, account.Email, account.FirstName, account.LastName,
		pgtype.Text{String: deref(account.Avatar), Valid: account.Avatar != nil},
		contacts,
		pgtype.Timestamptz{Time: account.LastSeen, Valid: !account.LastSeen.IsZero()},
		account.PasswordHash, account.Privilege,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateByEmail applies the patch and reports how many rows actually changed.
// The guard clause restricts the match to rows where at least one patched
// column holds a different value, so rewriting identical values counts as a
// no-op rather than a modification.
func (r *repository) UpdateByEmail(ctx context.Context, email string, patch UpdatePatch) (int64, error) {
	query, args := buildUpdateByEmail(email, patch)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildUpdateByEmail(email string, patch UpdatePatch) (string, []interface{}) {
	query := "UPDATE accounts SET updated_at = NOW()"
	var args []interface{}
	var changed []string
	argPos := 1

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		changed = append(changed, fmt.Sprintf("%s IS DISTINCT FROM $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Avatar != nil {
		set("avatar", *patch.Avatar)
	}
	if patch.ContactEmails != nil {
		set("contacts", *patch.ContactEmails)
	}

	query += fmt.Sprintf(" WHERE email = $%d", argPos)
	args = append(args, email)
	if len(changed) > 0 {
		query += " AND (" + strings.Join(changed, " OR ") + ")"
	}
	return query, args
}

func (r *repository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM accounts WHERE email = $1", email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AddContact appends atomically and only when absent, so a duplicate add
// reports zero affected rows rather than growing the array.
func (r *repository) AddContact(ctx context.Context, ownerEmail, contactEmail string) (int64, error) {
	const query = `
		UPDATE accounts
		SET contacts = array_append(contacts, $2), updated_at = NOW()
		WHERE email = $1 AND NOT ($2 = ANY(contacts))
	`
	tag, err := r.db.Exec(ctx, query, ownerEmail, contactEmail)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RemoveContact reports zero affected rows when the contact was not present.
func (r *repository) RemoveContact(ctx context.Context, ownerEmail, contactEmail string) (int64, error) {
	const query = `
		UPDATE accounts
		SET contacts = array_remove(contacts, $2), updated_at = NOW()
		WHERE email = $1 AND $2 = ANY(contacts)
	`
	tag, err := r.db.Exec(ctx, query, ownerEmail, contactEmail)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) TouchLastSeen(ctx context.Context, email string, seen time.Time) (int64, error) {
	const query = "UPDATE accounts SET last_seen = $2 WHERE email = $1"
	tag, err := r.db.Exec(ctx, query, email, pgtype.Timestamptz{Time: seen, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Repository = (*repository)(nil)
