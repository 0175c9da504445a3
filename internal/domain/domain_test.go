package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDepartmentRejectsSentinels(t *testing.T) {
	dept, ok := ParseDepartment(" it ")
	assert.True(t, ok)
	assert.Equal(t, DepartmentIT, dept)

	_, ok = ParseDepartment("REPORTER")
	assert.False(t, ok)
	_, ok = ParseDepartment("ADMIN")
	assert.False(t, ok)
	_, ok = ParseDepartment("CAFETERIA")
	assert.False(t, ok)
}

func TestParseTicketStatusNormalizes(t *testing.T) {
	status, ok := ParseTicketStatus("in_progress")
	assert.True(t, ok)
	assert.Equal(t, TicketStatusInProgress, status)

	_, ok = ParseTicketStatus("CLOSED")
	assert.False(t, ok)
}

func TestHasFeedback(t *testing.T) {
	var ticket Ticket
	assert.False(t, ticket.HasFeedback())

	text := "ok"
	ticket.FeedbackText = &text
	assert.True(t, ticket.HasFeedback())
}
