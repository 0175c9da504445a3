package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/repository"
	"github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

var errStoreDown = errors.New("store down")

// memStore backs the in-memory repositories used by the service tests. A
// single store shared by the account and ticket repos lets account removal
// reconcile tickets the way the transactional implementation does.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	tickets  map[string]*domain.Ticket

	// failRemove makes the next Remove fail before any mutation lands,
	// mimicking a transaction rollback.
	failRemove bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]*domain.Account),
		tickets:  make(map[string]*domain.Ticket),
	}
}

func (s *memStore) addAccount(id string, role domain.Role, dept domain.Department) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := &domain.Account{
		ID:         id,
		Name:       "acct " + id,
		Email:      id + "@example.com",
		Role:       role,
		Department: dept,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	s.accounts[id] = account
	return account
}

func (s *memStore) addTicket(t *domain.Ticket) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.tickets[t.ID] = t
	return t
}

func (s *memStore) ticket(id string) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tickets[id]
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

type memAccountRepo struct {
	store *memStore
}

func (r *memAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	clone := *account
	r.store.accounts[account.ID] = &clone
	return nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	account, ok := r.store.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (r *memAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, account := range r.store.accounts {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Account
	for _, account := range r.store.accounts {
		result = append(result, *account)
	}
	return result, nil
}

// FindLeastLoadedHandler mirrors the SQL selector: fewest non-RESOLVED
// tickets wins, ties break on lowest account id.
func (r *memAccountRepo) FindLeastLoadedHandler(_ context.Context, dept domain.Department) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var best *domain.Account
	bestLoad := -1
	for _, account := range r.store.accounts {
		if account.Role != domain.RoleHandler || account.Department != dept {
			continue
		}
		load := 0
		for _, t := range r.store.tickets {
			if t.HandlerID != nil && *t.HandlerID == account.ID && t.Status != domain.TicketStatusResolved {
				load++
			}
		}
		if best == nil || load < bestLoad || (load == bestLoad && account.ID < best.ID) {
			best = account
			bestLoad = load
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	clone := *best
	return &clone, nil
}

func (r *memAccountRepo) Remove(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.failRemove {
		return errStoreDown
	}
	if _, ok := r.store.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}

	switch account.Role {
	case domain.RoleHandler:
		for _, t := range r.store.tickets {
			if t.HandlerID != nil && *t.HandlerID == account.ID {
				t.HandlerID = nil
				if t.Status != domain.TicketStatusResolved {
					t.Status = domain.TicketStatusOpen
				}
				t.UpdatedAt = time.Now()
			}
		}
	case domain.RoleReporter:
		for id, t := range r.store.tickets {
			if t.ReporterID == account.ID {
				delete(r.store.tickets, id)
			}
		}
	}
	delete(r.store.accounts, account.ID)
	return nil
}

type memTicketRepo struct {
	store *memStore
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.store.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *memTicketRepo) UpdateAssignment(_ context.Context, id, handlerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.HandlerID = &handlerID
	ticket.Status = domain.TicketStatusInProgress
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *memTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now()
	return nil
}

// SetFeedback keeps the conditional-write contract: the first caller to find
// the feedback columns unset wins, everyone else gets false.
func (r *memTicketRepo) SetFeedback(_ context.Context, id, text string, sentiment domain.FeedbackSentiment, rating int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return false, nil
	}
	if ticket.FeedbackText != nil || ticket.FeedbackRating != nil {
		return false, nil
	}
	ticket.FeedbackText = &text
	ticket.FeedbackSentiment = &sentiment
	ticket.FeedbackRating = &rating
	ticket.UpdatedAt = time.Now()
	return true, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.store.tickets {
		if filter.ReporterID != nil && ticket.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.HandlerID != nil && (ticket.HandlerID == nil || *ticket.HandlerID != *filter.HandlerID) {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *ticket)
	}
	return result, nil
}

type memStatsRepo struct {
	entries       []repository.FeedbackEntry
	statusCounts  []repository.StatusCount
	categoryCount []repository.CategoryCount
	buckets       []repository.RatingBucket
	totalAccounts int64
	totals        repository.HandlerTotals
	avgRating     *float64
	totalRatings  int64
	ranking       []repository.HandlerRank

	statusCalls int
}

func (r *memStatsRepo) StatusCounts(context.Context) ([]repository.StatusCount, error) {
	r.statusCalls++
	return r.statusCounts, nil
}

func (r *memStatsRepo) CategoryCounts(context.Context) ([]repository.CategoryCount, error) {
	return r.categoryCount, nil
}

func (r *memStatsRepo) RatingBuckets(context.Context, *string) ([]repository.RatingBucket, error) {
	return r.buckets, nil
}

func (r *memStatsRepo) TotalAccounts(context.Context) (int64, error) {
	return r.totalAccounts, nil
}

func (r *memStatsRepo) HandlerTotals(context.Context, string) (*repository.HandlerTotals, error) {
	totals := r.totals
	return &totals, nil
}

func (r *memStatsRepo) HandlerRating(context.Context, string) (*float64, int64, error) {
	return r.avgRating, r.totalRatings, nil
}

func (r *memStatsRepo) DepartmentRanking(context.Context, domain.Department) ([]repository.HandlerRank, error) {
	return r.ranking, nil
}

func (r *memStatsRepo) ListFeedbacks(_ context.Context, handlerID *string) ([]repository.FeedbackEntry, error) {
	if handlerID == nil {
		return r.entries, nil
	}
	var result []repository.FeedbackEntry
	for _, entry := range r.entries {
		if entry.To != nil && *entry.To == *handlerID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func strPtr(s string) *string { return &s }

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *errorutil.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code)
}
