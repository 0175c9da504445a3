package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-desk/internal/domain"
)

// AccountRepository defines persistence access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	FindLeastLoadedHandler(ctx context.Context, dept domain.Department) (*domain.Account, error)
	Remove(ctx context.Context, account *domain.Account) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (name, email, password_hash, role, department)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Department,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `
        SELECT id, name, email, password_hash, role, department, created_at, updated_at
        FROM accounts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, name, email, password_hash, role, department, created_at, updated_at
        FROM accounts WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Department,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	const query = `
        SELECT id, name, email, password_hash, role, department, created_at, updated_at
        FROM accounts ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&account.Department,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

// FindLeastLoadedHandler picks the handler in dept with the fewest tickets
// whose status is not RESOLVED. Ties break on lowest account id so repeated
// calls over an unchanged snapshot return the same handler. Returns
// pgx.ErrNoRows when the department has no handlers at all.
func (r *accountRepository) FindLeastLoadedHandler(ctx context.Context, dept domain.Department) (*domain.Account, error) {
	const query = `
        SELECT a.id, a.name, a.email, a.password_hash, a.role, a.department, a.created_at, a.updated_at
        FROM accounts a
        LEFT JOIN tickets t ON t.handler_id = a.id AND t.status <> 'RESOLVED'
        WHERE a.role = 'HANDLER' AND a.department = $1
        GROUP BY a.id
        ORDER BY COUNT(t.id) ASC, a.id ASC
        LIMIT 1`
	return r.fetchSingle(ctx, query, dept)
}

// Remove deletes the account together with the ticket reconciliation the
// role requires, in a single transaction. Handler removal unassigns the
// handler's tickets and re-opens the unresolved ones; reporter removal
// cascades to the reporter's tickets. Either everything commits or nothing
// does.
func (r *accountRepository) Remove(ctx context.Context, account *domain.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	switch account.Role {
	case domain.RoleHandler:
		const reconcile = `
            UPDATE tickets
            SET handler_id = NULL,
                status = CASE WHEN UPPER(status) = 'RESOLVED' THEN 'RESOLVED' ELSE 'OPEN' END,
                updated_at = NOW()
            WHERE handler_id = $1`
		if _, err := tx.Exec(ctx, reconcile, account.ID); err != nil {
			return err
		}
	case domain.RoleReporter:
		if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE reporter_id = $1`, account.ID); err != nil {
			return err
		}
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, account.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
