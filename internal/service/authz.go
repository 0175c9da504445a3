package service

import (
	"github.com/spec-kit/issue-desk/internal/domain"
)

// canWorkTicket reports whether the actor may drive the ticket's lifecycle:
// the assigned handler or any administrator.
func canWorkTicket(actor *domain.Account, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return ticket.HandlerID != nil && *ticket.HandlerID == actor.ID
}

// ownsTicket reports whether the actor is the ticket's reporter.
func ownsTicket(actor *domain.Account, ticket *domain.Ticket) bool {
	return actor != nil && ticket != nil && ticket.ReporterID == actor.ID
}

// canReadAccountScope reports whether the actor may read lists scoped to
// accountID. Admins see everything; everyone else only their own scope.
func canReadAccountScope(actor *domain.Account, accountID string) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.ID == accountID
}
