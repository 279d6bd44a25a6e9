package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore implements Store on database/sql. Queries use Postgres-style
// ordinal placeholders, which both supported drivers accept.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQL-backed directory store.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ Store = (*SQLStore)(nil)

const accountColumns = `id, username, email, first_name, last_name, is_active, is_staff, is_superuser, password_hash, created_at, updated_at`

func scanAccount(row *sql.Row) (*Account, error) {
	acct := &Account{}
	err := row.Scan(&acct.ID, &acct.Username, &acct.Email, &acct.FirstName, &acct.LastName,
		&acct.IsActive, &acct.IsStaff, &acct.IsSuperuser, &acct.PasswordHash,
		&acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// FindByUsername returns the account for username, or ErrAccountNotFound.
func (s *SQLStore) FindByUsername(ctx context.Context, username string) (*Account, error) {
	acct, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1
	`, username))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return acct, nil
}

// CreateAccount persists a new account.
func (s *SQLStore) CreateAccount(ctx context.Context, acct NewAccount) (*Account, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (username, email, first_name, last_name, is_active, is_staff, is_superuser, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, acct.Username, acct.Email, acct.FirstName, acct.LastName,
		acct.IsActive, acct.IsStaff, acct.IsSuperuser, acct.PasswordHash, now, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return s.fetch(ctx, id)
}

// CreateAccountLinked persists a new account and its organization membership
// in one transaction. Nothing persists when the organization is missing.
func (s *SQLStore) CreateAccountLinked(ctx context.Context, acct NewAccount, orgName string) (*Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orgID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM organizations WHERE name = $1`, orgName).Scan(&orgID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrLinkedResourceMissing, orgName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query organization: %w", err)
	}

	now := time.Now().UTC()
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO accounts (username, email, first_name, last_name, is_active, is_staff, is_superuser, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, acct.Username, acct.Email, acct.FirstName, acct.LastName,
		acct.IsActive, acct.IsStaff, acct.IsSuperuser, acct.PasswordHash, now, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO organization_members (organization_id, account_id, joined_at)
		VALUES ($1, $2, $3)
	`, orgID, id, now)
	if err != nil {
		return nil, fmt.Errorf("failed to link account to organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.fetch(ctx, id)
}

func (s *SQLStore) fetch(ctx context.Context, id int64) (*Account, error) {
	acct, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return acct, nil
}

// EnsureSchema creates the directory tables when absent. The id column
// differs per driver, everything else is shared SQL.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	idCol := "BIGSERIAL PRIMARY KEY"
	if driver == "sqlite3" {
		idCol = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS accounts (
			id %s,
			username VARCHAR(%d) NOT NULL UNIQUE,
			email VARCHAR(254) NOT NULL,
			first_name VARCHAR(150) NOT NULL DEFAULT '',
			last_name VARCHAR(150) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_staff BOOLEAN NOT NULL DEFAULT FALSE,
			is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, idCol, MaxUsernameLength),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS organizations (
			id %s,
			name VARCHAR(255) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL
		)`, idCol),
		`CREATE TABLE IF NOT EXISTS organization_members (
			organization_id BIGINT NOT NULL REFERENCES organizations(id),
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			joined_at TIMESTAMP NOT NULL,
			PRIMARY KEY (organization_id, account_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure directory schema: %w", err)
		}
	}
	return nil
}
