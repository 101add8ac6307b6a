package custody

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
)

// Machine drives a file ticket through its custody lifecycle. Every entry
// point loads a consistent read, asks the permission gate, validates the
// transition against the legal-move table, and commits through the store's
// version check so two concurrent callers can never both win. The audit
// recorder is invoked exactly once per successful transition.
type Machine struct {
	store store.Store
	gate  *authz.Gate
	audit audit.Recorder
	log   *zap.Logger
	now   func() time.Time
}

// NewMachine wires the state machine to its collaborators.
func NewMachine(s store.Store, gate *authz.Gate, recorder audit.Recorder, log *zap.Logger) *Machine {
	return &Machine{
		store: s,
		gate:  gate,
		audit: recorder,
		log:   log,
		now:   time.Now,
	}
}

type custodySnapshot struct {
	Status   string `json:"status"`
	HolderID *uint  `json:"holder_id,omitempty"`
}

func snapshot(t *model.FileTicket) string {
	b, _ := json.Marshal(custodySnapshot{Status: t.Status, HolderID: t.CurrentHolderID})
	return string(b)
}

// Transfer hands the ticket to another user. Legal only from Created,
// Received or Processing; the caller must be the current holder or hold
// manager-or-above rank, and the recipient must be visible to the caller.
//
// The holder pointer moves to the recipient immediately, before the
// recipient acknowledges: Status stays InTransit until Receive, so the
// ticket routes to the recipient's queue while the audit trail still shows
// receipt as pending. The prior holder is recorded on the transfer row.
func (m *Machine) Transfer(ctx context.Context, p authz.Principal, ticketID, toUserID uint, notes string) (*model.FileTicket, error) {
	ticket, err := m.store.FileTicketByID(ctx, p.CompanyID, ticketID)
	if err != nil {
		return nil, err
	}

	decision, err := m.gate.Resolve(ctx, p, authz.ActionTransferFileTicket, authz.Target{
		Ticket:      ticket,
		RecipientID: toUserID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, authz.ErrDenied(decision)
	}

	from := Status(ticket.Status)
	if !CanTransition(from, StatusInTransit) {
		return nil, &TransitionError{From: from, To: StatusInTransit}
	}

	before := snapshot(ticket)
	priorHolder := ticket.CurrentHolderID
	recipient := toUserID
	ticket.Status = string(StatusInTransit)
	ticket.CurrentHolderID = &recipient

	transfer := &model.FileTicketTransfer{
		FileTicketID:  ticket.ID,
		FromUserID:    priorHolder,
		ToUserID:      toUserID,
		Notes:         notes,
		TransferredAt: m.now(),
	}
	if err := m.store.TransferFileTicket(ctx, ticket, transfer); err != nil {
		return nil, err
	}

	m.log.Info("File ticket transferred",
		zap.Uint("ticket_id", ticket.ID),
		zap.Uint("to_user_id", toUserID),
		zap.Uint("acting_user_id", p.UserID))

	m.audit.Record(ctx, audit.Entry{
		CompanyID:    ticket.CompanyID,
		Action:       "fileticket.transfer",
		EntityType:   "file_ticket",
		EntityID:     ticket.ID,
		OldValue:     before,
		NewValue:     snapshot(ticket),
		ActingUserID: p.UserID,
	})
	return ticket, nil
}

// Receive acknowledges the in-flight transfer. Legal only while InTransit
// and only for the designated recipient; a second call fails on the state
// check with no write. The single open transfer row gets its ReceivedAt
// stamp in the same commit.
func (m *Machine) Receive(ctx context.Context, p authz.Principal, ticketID uint) (*model.FileTicket, error) {
	ticket, err := m.store.FileTicketByID(ctx, p.CompanyID, ticketID)
	if err != nil {
		return nil, err
	}

	decision, err := m.gate.Resolve(ctx, p, authz.ActionReceiveFileTicket, authz.Target{Ticket: ticket})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, authz.ErrDenied(decision)
	}

	from := Status(ticket.Status)
	if from != StatusInTransit {
		return nil, &TransitionError{From: from, To: StatusReceived}
	}

	before := snapshot(ticket)
	ticket.Status = string(StatusReceived)

	if err := m.store.ReceiveFileTicket(ctx, ticket, m.now()); err != nil {
		return nil, err
	}

	m.log.Info("File ticket received",
		zap.Uint("ticket_id", ticket.ID),
		zap.Uint("acting_user_id", p.UserID))

	m.audit.Record(ctx, audit.Entry{
		CompanyID:    ticket.CompanyID,
		Action:       "fileticket.receive",
		EntityType:   "file_ticket",
		EntityID:     ticket.ID,
		OldValue:     before,
		NewValue:     snapshot(ticket),
		ActingUserID: p.UserID,
	})
	return ticket, nil
}

// UpdateStatus applies a holder-neutral move: Processing, Approved,
// Rejected, Completed or Lost. InTransit and Received are reserved for
// Transfer and Receive, and no transfer row is written here.
func (m *Machine) UpdateStatus(ctx context.Context, p authz.Principal, ticketID uint, next Status) (*model.FileTicket, error) {
	if !next.Valid() || next == StatusCreated || next == StatusInTransit || next == StatusReceived {
		return nil, authz.ErrDenied(authz.Deny(authz.DenyBadRequest, "invalid target status"))
	}

	ticket, err := m.store.FileTicketByID(ctx, p.CompanyID, ticketID)
	if err != nil {
		return nil, err
	}

	decision, err := m.gate.Resolve(ctx, p, authz.ActionUpdateFileTicketStatus, authz.Target{Ticket: ticket})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, authz.ErrDenied(decision)
	}

	from := Status(ticket.Status)
	if !CanTransition(from, next) {
		return nil, &TransitionError{From: from, To: next}
	}

	before := snapshot(ticket)
	ticket.Status = string(next)

	// Declaring an in-flight ticket lost resolves the pending hand-off in
	// the same commit, so no open transfer row outlives transit.
	if from == StatusInTransit && next == StatusLost {
		if err := m.store.LoseFileTicket(ctx, ticket, m.now()); err != nil {
			return nil, err
		}
	} else if err := m.store.UpdateFileTicket(ctx, ticket); err != nil {
		return nil, err
	}

	m.log.Info("File ticket status updated",
		zap.Uint("ticket_id", ticket.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
		zap.Uint("acting_user_id", p.UserID))

	m.audit.Record(ctx, audit.Entry{
		CompanyID:    ticket.CompanyID,
		Action:       "fileticket.status",
		EntityType:   "file_ticket",
		EntityID:     ticket.ID,
		OldValue:     before,
		NewValue:     snapshot(ticket),
		ActingUserID: p.UserID,
	})
	return ticket, nil
}

// Chain returns the ticket's custody history, oldest hand-off first.
func (m *Machine) Chain(ctx context.Context, p authz.Principal, ticketID uint) ([]model.FileTicketTransfer, error) {
	ticket, err := m.store.FileTicketByID(ctx, p.CompanyID, ticketID)
	if err != nil {
		return nil, err
	}
	decision, err := m.gate.Resolve(ctx, p, authz.ActionViewFileTicket, authz.Target{Ticket: ticket})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, authz.ErrDenied(decision)
	}
	return m.store.TransfersByTicket(ctx, ticketID)
}
