package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/repository"
)

func newFeedbackService(store *memStore, stats *memStatsRepo) *FeedbackService {
	if stats == nil {
		stats = &memStatsRepo{}
	}
	return NewFeedbackService(FeedbackDependencies{
		TicketRepo: &memTicketRepo{store: store},
		StatsRepo:  stats,
	})
}

func resolvedTicket(store *memStore, reporterID, handlerID string) *domain.Ticket {
	return store.addTicket(&domain.Ticket{
		Title:       "broken chair",
		Description: "reading room chair lost a leg",
		Category:    domain.DepartmentLibrary,
		Status:      domain.TicketStatusResolved,
		ReporterID:  reporterID,
		HandlerID:   &handlerID,
	})
}

func TestSubmitFeedbackHappyPath(t *testing.T) {
	store := newMemStore()
	reporter := store.addAccount("rep-1", domain.RoleReporter, domain.DepartmentReporter)
	store.addAccount("handler-a", domain.RoleHandler, domain.DepartmentLibrary)
	ticket := resolvedTicket(store, reporter.ID, "handler-a")

	svc := newFeedbackService(store, nil)
	updated, err := svc.Submit(context.Background(), reporter, ticket.ID, FeedbackInput{
		Text:      "fixed the same day",
		Sentiment: "positive",
		Rating:    5,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.FeedbackText)
	assert.Equal(t, "fixed the same day", *updated.FeedbackText)
	require.NotNil(t, updated.FeedbackSentiment)
	assert.Equal(t, domain.SentimentPositive, *updated.FeedbackSentiment)
	require.NotNil(t, updated.FeedbackRating)
	assert.Equal(t, 5, *updated.FeedbackRating)

	stored := store.ticket(ticket.ID)
	assert.True(t, stored.HasFeedback())
}

func TestSubmitFeedbackValidation(t *testing.T) {
	store := newMemStore()
	reporter := store.addAccount("rep-1", domain.RoleReporter, domain.DepartmentReporter)
	ticket := resolvedTicket(store, reporter.ID, "handler-a")
	svc := newFeedbackService(store, nil)

	cases := []FeedbackInput{
		{Text: "   ", Sentiment: "POSITIVE", Rating: 4},
		{Text: "ok", Sentiment: "MEH", Rating: 4},
		{Text: "ok", Sentiment: "POSITIVE", Rating: 0},
		{Text: "ok", Sentiment: "POSITIVE", Rating: 6},
	}
	for _, input := range cases {
		_, err := svc.Submit(context.Background(), reporter, ticket.ID, input)
		requireDomainCode(t, err, "INVALID_ARGUMENT")
	}

	// rejected submissions never touch the row
	assert.False(t, store.ticket(ticket.ID).HasFeedback())
}

func TestSubmitFeedbackPreconditions(t *testing.T) {
	store := newMemStore()
	reporter := store.addAccount("rep-1", domain.RoleReporter, domain.DepartmentReporter)
	stranger := store.addAccount("rep-2", domain.RoleReporter, domain.DepartmentReporter)
	svc := newFeedbackService(store, nil)
	input := FeedbackInput{Text: "ok", Sentiment: "NEUTRAL", Rating: 3}

	_, err := svc.Submit(context.Background(), reporter, "missing", input)
	requireDomainCode(t, err, "NOT_FOUND")

	resolved := resolvedTicket(store, reporter.ID, "handler-a")
	_, err = svc.Submit(context.Background(), stranger, resolved.ID, input)
	requireDomainCode(t, err, "FORBIDDEN")

	handlerID := "handler-a"
	inProgress := store.addTicket(&domain.Ticket{
		Title: "t", Category: domain.DepartmentIT,
		Status: domain.TicketStatusInProgress, ReporterID: reporter.ID, HandlerID: &handlerID,
	})
	_, err = svc.Submit(context.Background(), reporter, inProgress.ID, input)
	requireDomainCode(t, err, "INVALID_ARGUMENT")

	orphaned := store.addTicket(&domain.Ticket{
		Title: "t", Category: domain.DepartmentIT,
		Status: domain.TicketStatusResolved, ReporterID: reporter.ID,
	})
	_, err = svc.Submit(context.Background(), reporter, orphaned.ID, input)
	requireDomainCode(t, err, "INVALID_ARGUMENT")

	_, err = svc.Submit(context.Background(), reporter, resolved.ID, input)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), reporter, resolved.ID, input)
	requireDomainCode(t, err, "CONFLICT")

	assert.False(t, store.ticket(inProgress.ID).HasFeedback())
	assert.False(t, store.ticket(orphaned.ID).HasFeedback())
}

func TestSubmitFeedbackExactlyOnceUnderContention(t *testing.T) {
	store := newMemStore()
	reporter := store.addAccount("rep-1", domain.RoleReporter, domain.DepartmentReporter)
	ticket := resolvedTicket(store, reporter.ID, "handler-a")
	svc := newFeedbackService(store, nil)

	const submitters = 16
	var wg sync.WaitGroup
	winners := make(chan string, submitters)
	conflicts := make(chan error, submitters)

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			text := fmt.Sprintf("attempt %d", n)
			_, err := svc.Submit(context.Background(), reporter, ticket.ID, FeedbackInput{
				Text:      text,
				Sentiment: "POSITIVE",
				Rating:    4,
			})
			if err != nil {
				conflicts <- err
				return
			}
			winners <- text
		}(i)
	}
	wg.Wait()
	close(winners)
	close(conflicts)

	require.Len(t, winners, 1)
	require.Len(t, conflicts, submitters-1)
	for err := range conflicts {
		requireDomainCode(t, err, "CONFLICT")
	}

	winner := <-winners
	stored := store.ticket(ticket.ID)
	require.NotNil(t, stored.FeedbackText)
	assert.Equal(t, winner, *stored.FeedbackText)
	require.NotNil(t, stored.FeedbackRating)
	assert.Equal(t, 4, *stored.FeedbackRating)
}

func TestListForScopes(t *testing.T) {
	store := newMemStore()
	admin := store.addAccount("admin-1", domain.RoleAdmin, domain.DepartmentAdmin)
	handler := store.addAccount("handler-a", domain.RoleHandler, domain.DepartmentIT)
	other := store.addAccount("handler-b", domain.RoleHandler, domain.DepartmentIT)

	stats := &memStatsRepo{entries: []repository.FeedbackEntry{
		{TicketID: "t1", From: "rep-1", To: strPtr("handler-a"), Rating: 5, Sentiment: domain.SentimentPositive, Comment: "great", CreatedAt: time.Now()},
		{TicketID: "t2", From: "rep-2", To: strPtr("handler-b"), Rating: 2, Sentiment: domain.SentimentNegative, Comment: "slow", CreatedAt: time.Now()},
	}}
	svc := newFeedbackService(store, stats)

	all, err := svc.ListFor(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListFor(context.Background(), handler, nil)
	requireDomainCode(t, err, "FORBIDDEN")

	mine, err := svc.ListFor(context.Background(), handler, strPtr(handler.ID))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "t1", mine[0].TicketID)

	_, err = svc.ListFor(context.Background(), other, strPtr(handler.ID))
	requireDomainCode(t, err, "FORBIDDEN")

	theirs, err := svc.ListFor(context.Background(), admin, strPtr(other.ID))
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
