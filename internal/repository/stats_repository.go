package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-desk/internal/domain"
)

// StatusCount is one bar of the status histogram.
type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int64               `json:"count"`
}

// CategoryCount is one slice of the per-category histogram.
type CategoryCount struct {
	Category domain.Department `json:"category"`
	Count    int64             `json:"count"`
}

// RatingBucket holds a rounded-rating bucket and its count.
type RatingBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// HandlerTotals summarizes one handler's workload.
type HandlerTotals struct {
	Assigned int64 `json:"assigned"`
	Resolved int64 `json:"resolved"`
	Pending  int64 `json:"pending"`
}

// HandlerRank is one row of a department ranking.
type HandlerRank struct {
	AccountID     string   `json:"account_id"`
	Name          string   `json:"name"`
	TotalResolved int64    `json:"total_resolved"`
	AvgRating     *float64 `json:"avg_rating"`
}

// FeedbackEntry is a feedback row joined with reporter and handler names.
type FeedbackEntry struct {
	TicketID  string                   `json:"ticket_id"`
	From      string                   `json:"from"`
	To        *string                  `json:"to"`
	Rating    int                      `json:"rating"`
	Sentiment domain.FeedbackSentiment `json:"sentiment"`
	Comment   string                   `json:"comment"`
	CreatedAt time.Time                `json:"created_at"`
}

// StatsRepository serves read-only projections over tickets and accounts.
// None of these queries sit in the hot path of a mutation.
type StatsRepository interface {
	StatusCounts(ctx context.Context) ([]StatusCount, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	RatingBuckets(ctx context.Context, handlerID *string) ([]RatingBucket, error)
	TotalAccounts(ctx context.Context) (int64, error)
	HandlerTotals(ctx context.Context, handlerID string) (*HandlerTotals, error)
	HandlerRating(ctx context.Context, handlerID string) (avg *float64, total int64, err error)
	DepartmentRanking(ctx context.Context, dept domain.Department) ([]HandlerRank, error)
	ListFeedbacks(ctx context.Context, handlerID *string) ([]FeedbackEntry, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository instantiates the repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var entry StatusCount
		if err := rows.Scan(&entry.Status, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *statsRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	const query = `SELECT category, COUNT(*) FROM tickets GROUP BY category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var entry CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// RatingBuckets groups ratings into five star buckets by rounding. With a
// handler id the distribution is scoped to that handler.
func (r *statsRepository) RatingBuckets(ctx context.Context, handlerID *string) ([]RatingBucket, error) {
	query := `
        SELECT
            CASE
                WHEN feedback_rating >= 4.5 THEN '5 Stars'
                WHEN feedback_rating >= 3.5 THEN '4 Stars'
                WHEN feedback_rating >= 2.5 THEN '3 Stars'
                WHEN feedback_rating >= 1.5 THEN '2 Stars'
                ELSE '1 Star'
            END AS bucket,
            COUNT(*)
        FROM tickets
        WHERE feedback_rating IS NOT NULL`
	args := []any{}
	if handlerID != nil {
		query += ` AND handler_id=$1`
		args = append(args, *handlerID)
	}
	query += ` GROUP BY bucket`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RatingBucket
	for rows.Next() {
		var entry RatingBucket
		if err := rows.Scan(&entry.Label, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *statsRepository) TotalAccounts(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total)
	return total, err
}

func (r *statsRepository) HandlerTotals(ctx context.Context, handlerID string) (*HandlerTotals, error) {
	const query = `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN UPPER(status) = 'RESOLVED' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN UPPER(status) <> 'RESOLVED' THEN 1 ELSE 0 END), 0)
        FROM tickets
        WHERE handler_id=$1`
	var totals HandlerTotals
	if err := r.pool.QueryRow(ctx, query, handlerID).Scan(&totals.Assigned, &totals.Resolved, &totals.Pending); err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *statsRepository) HandlerRating(ctx context.Context, handlerID string) (*float64, int64, error) {
	const query = `
        SELECT AVG(feedback_rating), COUNT(*)
        FROM tickets
        WHERE handler_id=$1 AND feedback_rating IS NOT NULL`
	var avg *float64
	var total int64
	if err := r.pool.QueryRow(ctx, query, handlerID).Scan(&avg, &total); err != nil {
		return nil, 0, err
	}
	return avg, total, nil
}

// DepartmentRanking orders a department's handlers by resolved count, then
// average rating.
func (r *statsRepository) DepartmentRanking(ctx context.Context, dept domain.Department) ([]HandlerRank, error) {
	const query = `
        SELECT a.id, a.name, COUNT(t.id), AVG(t.feedback_rating)
        FROM accounts a
        LEFT JOIN tickets t ON t.handler_id = a.id AND UPPER(t.status) = 'RESOLVED'
        WHERE a.role = 'HANDLER' AND a.department = $1
        GROUP BY a.id, a.name
        ORDER BY COUNT(t.id) DESC, AVG(t.feedback_rating) DESC NULLS LAST`
	rows, err := r.pool.Query(ctx, query, dept)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []HandlerRank
	for rows.Next() {
		var entry HandlerRank
		if err := rows.Scan(&entry.AccountID, &entry.Name, &entry.TotalResolved, &entry.AvgRating); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *statsRepository) ListFeedbacks(ctx context.Context, handlerID *string) ([]FeedbackEntry, error) {
	query := `
        SELECT t.id, reporter.name, handler.name, t.feedback_rating, t.feedback_sentiment, t.feedback_text, t.created_at
        FROM tickets t
        JOIN accounts reporter ON t.reporter_id = reporter.id
        LEFT JOIN accounts handler ON t.handler_id = handler.id
        WHERE t.feedback_text IS NOT NULL`
	args := []any{}
	if handlerID != nil {
		query += ` AND t.handler_id=$1`
		args = append(args, *handlerID)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FeedbackEntry
	for rows.Next() {
		var entry FeedbackEntry
		if err := rows.Scan(&entry.TicketID, &entry.From, &entry.To, &entry.Rating, &entry.Sentiment, &entry.Comment, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
