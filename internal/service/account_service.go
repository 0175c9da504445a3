package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-desk/internal/auth"
	"github.com/spec-kit/issue-desk/internal/config"
	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/events"
	"github.com/spec-kit/issue-desk/internal/repository"
	apperrors "github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

// AccountService coordinates registration, login and account removal.
type AccountService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
}

// AccountDependencies bundles repositories for the account service.
type AccountDependencies struct {
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
}

// RegisterInput describes a registration payload.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department string
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	return &AccountService{
		accounts:   deps.AccountRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		dispatcher: deps.Dispatcher,
	}
}

// Register creates a new account. The department derives from the role:
// reporters and admins get sentinel values, handlers must name one of the
// closed department set.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewInvalidArgument("name, email, password required", nil)
	}

	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewInvalidArgument("invalid role", map[string]any{"role": input.Role})
	}

	var department domain.Department
	switch role {
	case domain.RoleReporter:
		department = domain.DepartmentReporter
	case domain.RoleAdmin:
		department = domain.DepartmentAdmin
	case domain.RoleHandler:
		department, ok = domain.ParseDepartment(input.Department)
		if !ok {
			return nil, apperrors.NewInvalidArgument("invalid department for handler", map[string]any{"department": input.Department})
		}
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   department,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// Login authenticates an account and issues a token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.Account, string, time.Time, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return account, token, exp, nil
}

// List returns every account.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return accounts, nil
}

// Remove deletes an account after reconciling its in-flight work: handler
// tickets are unassigned and, unless already RESOLVED, re-opened for future
// assignment; reporter tickets are cascade deleted. The reconciliation and
// the account delete commit in one transaction, so a failure leaves the
// account and its tickets untouched. Self-deletion is rejected before the
// transaction opens.
func (s *AccountService) Remove(ctx context.Context, actor *domain.Account, accountID string) error {
	if actor.ID == accountID {
		return apperrors.NewConflict("cannot delete own account", nil)
	}

	target, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("account", map[string]any{"account_id": accountID})
		}
		return apperrors.MapError(err)
	}

	if err := s.accounts.Remove(ctx, target); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("account", map[string]any{"account_id": accountID})
		}
		return apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAccountRemoved,
			Actor:     actorFor(actor),
			Timestamp: time.Now(),
			Payload: events.AccountRemovedPayload{
				AccountID: target.ID,
				Role:      target.Role,
			},
		})
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
