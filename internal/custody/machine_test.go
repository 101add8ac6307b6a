package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
)

// machineEnv wires a Machine over the in-memory store with a frozen clock:
// one company, manager M with reports Q (member) and R (qa), and an admin.
type machineEnv struct {
	store   *store.MemoryStore
	machine *Machine

	companyID uint
	admin     authz.Principal
	managerM  authz.Principal
	memberQ   authz.Principal
	qaR       authz.Principal

	clock time.Time
}

func uintPtr(v uint) *uint { return &v }

func newMachineEnv(t *testing.T) *machineEnv {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	company := &model.Company{Name: "initech"}
	require.NoError(t, s.CreateCompany(ctx, company))

	addUser := func(email string, role model.SystemRole, managerID *uint) *model.User {
		user := &model.User{
			Email:      email,
			Name:       email,
			SystemRole: role,
			CompanyID:  &company.ID,
			ManagerID:  managerID,
		}
		require.NoError(t, s.CreateUser(ctx, user))
		return user
	}

	admin := addUser("admin@initech.test", model.RoleAdmin, nil)
	manager := addUser("m@initech.test", model.RoleManager, nil)
	member := addUser("q@initech.test", model.RoleMember, &manager.ID)
	qa := addUser("r@initech.test", model.RoleQA, &manager.ID)

	resolver := authz.NewResolver(s)
	gate := authz.NewGate(s, resolver)
	recorder := audit.NewStoreRecorder(s, zap.NewNop())
	machine := NewMachine(s, gate, recorder, zap.NewNop())

	env := &machineEnv{
		store:     s,
		machine:   machine,
		companyID: company.ID,
		admin:     authz.Principal{UserID: admin.ID, CompanyID: company.ID, Role: model.RoleAdmin},
		managerM:  authz.Principal{UserID: manager.ID, CompanyID: company.ID, Role: model.RoleManager},
		memberQ:   authz.Principal{UserID: member.ID, CompanyID: company.ID, Role: model.RoleMember},
		qaR:       authz.Principal{UserID: qa.ID, CompanyID: company.ID, Role: model.RoleQA},
		clock:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	machine.now = func() time.Time { return env.clock }
	return env
}

// newTicket seeds a ticket created and held by the given user.
func (e *machineEnv) newTicket(t *testing.T, creator authz.Principal) *model.FileTicket {
	t.Helper()
	ticket := &model.FileTicket{
		CompanyID:       e.companyID,
		Title:           "notarized lease agreement",
		Status:          string(StatusCreated),
		CreatedByID:     creator.UserID,
		CurrentHolderID: uintPtr(creator.UserID),
	}
	require.NoError(t, e.store.CreateFileTicket(context.Background(), ticket))
	return ticket
}

func (e *machineEnv) activityCount(t *testing.T) int {
	t.Helper()
	entries, err := e.store.ActivitiesByCompany(context.Background(), e.companyID, 1000)
	require.NoError(t, err)
	return len(entries)
}

func TestTransferReceiveRoundTrip(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	moved, err := env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "courier pickup")
	require.NoError(t, err)
	assert.Equal(t, string(StatusInTransit), moved.Status)
	require.NotNil(t, moved.CurrentHolderID)
	assert.Equal(t, env.memberQ.UserID, *moved.CurrentHolderID)
	assert.Equal(t, 2, moved.Version)

	transfers, err := env.store.TransfersByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.NotNil(t, transfers[0].FromUserID)
	assert.Equal(t, env.managerM.UserID, *transfers[0].FromUserID)
	assert.Equal(t, env.memberQ.UserID, transfers[0].ToUserID)
	assert.Equal(t, "courier pickup", transfers[0].Notes)
	assert.Equal(t, env.clock, transfers[0].TransferredAt)
	assert.Nil(t, transfers[0].ReceivedAt, "receipt is pending until acknowledged")

	env.clock = env.clock.Add(45 * time.Minute)
	received, err := env.machine.Receive(ctx, env.memberQ, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusReceived), received.Status)
	require.NotNil(t, received.CurrentHolderID)
	assert.Equal(t, env.memberQ.UserID, *received.CurrentHolderID)
	assert.Equal(t, 3, received.Version)

	transfers, err = env.store.TransfersByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.NotNil(t, transfers[0].ReceivedAt)
	assert.Equal(t, env.clock, *transfers[0].ReceivedAt)

	assert.Equal(t, 2, env.activityCount(t), "one audit row per successful transition")
}

func TestReceiveRequiresInTransit(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	// Nothing is in flight yet.
	_, err := env.machine.Receive(ctx, env.managerM, ticket.ID)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusCreated, terr.From)

	_, err = env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "")
	require.NoError(t, err)
	_, err = env.machine.Receive(ctx, env.memberQ, ticket.ID)
	require.NoError(t, err)

	before := env.activityCount(t)
	stored, err := env.store.FileTicketByID(ctx, env.companyID, ticket.ID)
	require.NoError(t, err)
	versionBefore := stored.Version

	// Acknowledging twice fails on the state check with no write.
	_, err = env.machine.Receive(ctx, env.memberQ, ticket.ID)
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusReceived, terr.From)

	stored, err = env.store.FileTicketByID(ctx, env.companyID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, versionBefore, stored.Version)
	assert.Equal(t, before, env.activityCount(t), "failed transitions leave no audit row")
}

func TestReceiveOnlyByDesignatedRecipient(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	_, err := env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "")
	require.NoError(t, err)

	_, err = env.machine.Receive(ctx, env.admin, ticket.ID)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.DenyForbidden, denied.Decision.Kind)
}

func TestTransferWhileInTransit(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.qaR)

	_, err := env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "")
	require.NoError(t, err)

	// The manager passes the gate but the move table still rejects a
	// second hand-off before the first is acknowledged.
	_, err = env.machine.Transfer(ctx, env.managerM, ticket.ID, env.qaR.UserID, "")
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusInTransit, terr.From)
	assert.Equal(t, StatusInTransit, terr.To)

	// The QA creator can still see the ticket but lost custody at the
	// transfer, and their rank carries no override.
	_, err = env.machine.Transfer(ctx, env.qaR, ticket.ID, env.qaR.UserID, "")
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.DenyForbidden, denied.Decision.Kind)
}

func TestProcessingToCompletion(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	_, err := env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "")
	require.NoError(t, err)
	_, err = env.machine.Receive(ctx, env.memberQ, ticket.ID)
	require.NoError(t, err)

	// The holder works the ticket through to completion.
	for _, next := range []Status{StatusProcessing, StatusApproved, StatusCompleted} {
		updated, err := env.machine.UpdateStatus(ctx, env.memberQ, ticket.ID, next)
		require.NoError(t, err, "move to %s", next)
		assert.Equal(t, string(next), updated.Status)
	}

	stored, err := env.store.FileTicketByID(ctx, env.companyID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Version)
	require.NotNil(t, stored.CurrentHolderID)
	assert.Equal(t, env.memberQ.UserID, *stored.CurrentHolderID, "completion does not clear the holder")

	// Terminal means terminal.
	_, err = env.machine.UpdateStatus(ctx, env.memberQ, ticket.ID, StatusLost)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusCompleted, terr.From)
}

func TestUpdateStatusRejectsReservedTargets(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	for _, next := range []Status{StatusCreated, StatusInTransit, StatusReceived, Status("misfiled")} {
		_, err := env.machine.UpdateStatus(ctx, env.managerM, ticket.ID, next)
		var denied *authz.DeniedError
		require.ErrorAs(t, err, &denied, "target %s", next)
		assert.Equal(t, authz.DenyBadRequest, denied.Decision.Kind)
	}
}

func TestUpdateStatusIllegalMove(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	_, err := env.machine.UpdateStatus(ctx, env.managerM, ticket.ID, StatusApproved)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusCreated, terr.From)
	assert.Equal(t, StatusApproved, terr.To)
}

func TestMarkLostFromAnyNonTerminalState(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	_, err := env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "")
	require.NoError(t, err)

	// A manager can declare the file lost while it is still in flight. The
	// pending hand-off is resolved in the same move: the row records when
	// the ticket left transit, and no acknowledgement was ever made.
	updated, err := env.machine.UpdateStatus(ctx, env.managerM, ticket.ID, StatusLost)
	require.NoError(t, err)
	assert.Equal(t, string(StatusLost), updated.Status)

	transfers, err := env.store.TransfersByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Nil(t, transfers[0].ReceivedAt)
	require.NotNil(t, transfers[0].ResolvedAt)
	assert.Equal(t, env.clock, *transfers[0].ResolvedAt)

	_, err = env.machine.UpdateStatus(ctx, env.managerM, ticket.ID, StatusProcessing)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusLost, terr.From)
}

func TestUpdateStatusRequiresHolderOrRank(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.qaR)

	// The QA creator currently holds the file and may move it.
	_, err := env.machine.UpdateStatus(ctx, env.qaR, ticket.ID, StatusLost)
	require.NoError(t, err)

	ticket = env.newTicket(t, env.managerM)
	_, err = env.machine.Transfer(ctx, env.managerM, ticket.ID, env.qaR.UserID, "")
	require.NoError(t, err)
	_, err = env.machine.Receive(ctx, env.qaR, ticket.ID)
	require.NoError(t, err)

	// Q can see nothing of this ticket: the denial hides its existence.
	_, err = env.machine.UpdateStatus(ctx, env.memberQ, ticket.ID, StatusProcessing)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.DenyNotFound, denied.Decision.Kind)
}

func TestChain(t *testing.T) {
	env := newMachineEnv(t)
	ctx := context.Background()
	ticket := env.newTicket(t, env.managerM)

	_, err := env.machine.Transfer(ctx, env.managerM, ticket.ID, env.memberQ.UserID, "first hop")
	require.NoError(t, err)
	_, err = env.machine.Receive(ctx, env.memberQ, ticket.ID)
	require.NoError(t, err)
	_, err = env.machine.Transfer(ctx, env.admin, ticket.ID, env.qaR.UserID, "reassigned")
	require.NoError(t, err)

	chain, err := env.machine.Chain(ctx, env.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, env.memberQ.UserID, chain[0].ToUserID)
	assert.NotNil(t, chain[0].ReceivedAt)
	assert.Equal(t, env.qaR.UserID, chain[1].ToUserID)
	assert.Nil(t, chain[1].ReceivedAt)
	require.NotNil(t, chain[1].FromUserID)
	assert.Equal(t, env.memberQ.UserID, *chain[1].FromUserID, "the prior holder is on the hand-off row")

	// Q lost custody at the second transfer and cannot see the ticket at
	// all anymore, so the history is hidden too.
	_, err = env.machine.Chain(ctx, env.memberQ, ticket.ID)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.DenyNotFound, denied.Decision.Kind)
}

func TestUnknownTicket(t *testing.T) {
	env := newMachineEnv(t)

	_, err := env.machine.Transfer(context.Background(), env.managerM, 9999, env.memberQ.UserID, "")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
