package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/repository"
)

func TestGetOverviewAggregatesProjections(t *testing.T) {
	stats := &memStatsRepo{
		statusCounts: []repository.StatusCount{
			{Status: domain.TicketStatusOpen, Count: 2},
			{Status: domain.TicketStatusResolved, Count: 7},
		},
		categoryCount: []repository.CategoryCount{
			{Category: domain.DepartmentIT, Count: 5},
		},
		buckets:       []repository.RatingBucket{{Label: "5 Stars", Count: 3}},
		totalAccounts: 11,
	}
	svc := NewStatsService(StatsDependencies{StatsRepo: stats})

	overview, err := svc.GetOverview(context.Background())
	require.NoError(t, err)

	assert.Len(t, overview.Statuses, 2)
	assert.Len(t, overview.Categories, 1)
	assert.Len(t, overview.RatingBuckets, 1)
	assert.Equal(t, int64(11), overview.TotalAccounts)
	// without a cache every call hits the repository
	_, err = svc.GetOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.statusCalls)
}

func TestGetHandlerOverviewScopes(t *testing.T) {
	store := newMemStore()
	admin := store.addAccount("admin-1", domain.RoleAdmin, domain.DepartmentAdmin)
	handler := store.addAccount("handler-a", domain.RoleHandler, domain.DepartmentIT)
	other := store.addAccount("handler-b", domain.RoleHandler, domain.DepartmentIT)

	avg := 4.5
	stats := &memStatsRepo{
		totals:       repository.HandlerTotals{Assigned: 10, Resolved: 8, Pending: 2},
		avgRating:    &avg,
		totalRatings: 6,
		ranking: []repository.HandlerRank{
			{AccountID: handler.ID, Name: handler.Name, TotalResolved: 8, AvgRating: &avg},
		},
	}
	svc := NewStatsService(StatsDependencies{
		StatsRepo:   stats,
		AccountRepo: &memAccountRepo{store: store},
	})

	overview, err := svc.GetHandlerOverview(context.Background(), handler, handler.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), overview.Totals.Resolved)
	require.NotNil(t, overview.AvgRating)
	assert.InDelta(t, 4.5, *overview.AvgRating, 0.001)
	assert.Equal(t, domain.DepartmentIT, overview.Department)
	assert.Len(t, overview.DepartmentRanking, 1)

	_, err = svc.GetHandlerOverview(context.Background(), other, handler.ID)
	requireDomainCode(t, err, "FORBIDDEN")

	_, err = svc.GetHandlerOverview(context.Background(), admin, handler.ID)
	require.NoError(t, err)

	_, err = svc.GetHandlerOverview(context.Background(), admin, "ghost")
	requireDomainCode(t, err, "NOT_FOUND")
}
