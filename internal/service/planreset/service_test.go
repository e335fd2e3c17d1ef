package planreset

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockAuditStore struct {
	ExistsFunc func(ctx context.Context, clientID, reviewerID uuid.UUID, planYearStart time.Time) (bool, error)
	AppendFunc func(ctx context.Context, entry *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error)
}

func (m *mockAuditStore) Exists(ctx context.Context, clientID, reviewerID uuid.UUID, planYearStart time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, clientID, reviewerID, planYearStart)
	}
	return false, nil
}

func (m *mockAuditStore) Append(ctx context.Context, entry *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	out := *entry
	out.ID = uuid.New()
	return &out, nil
}

type mockClientRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Client, error)
}

func (m *mockClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type mockAssignmentRepo struct {
	GetOpenFunc func(ctx context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, error)
}

func (m *mockAssignmentRepo) GetOpen(ctx context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, error) {
	if m.GetOpenFunc != nil {
		return m.GetOpenFunc(ctx, clientID, reviewerID)
	}
	return nil, domain.ErrNotFound
}

type mockTrainingGateway struct {
	GetCurrentCompletionFunc func(ctx context.Context, artifactRef string, reviewerID uuid.UUID) (*time.Time, error)
	ResetCompletionFunc      func(ctx context.Context, artifactRef string, reviewerID uuid.UUID) error
}

func (m *mockTrainingGateway) GetCurrentCompletion(ctx context.Context, artifactRef string, reviewerID uuid.UUID) (*time.Time, error) {
	if m.GetCurrentCompletionFunc != nil {
		return m.GetCurrentCompletionFunc(ctx, artifactRef, reviewerID)
	}
	return nil, nil
}

func (m *mockTrainingGateway) ResetCompletion(ctx context.Context, artifactRef string, reviewerID uuid.UUID) error {
	if m.ResetCompletionFunc != nil {
		return m.ResetCompletionFunc(ctx, artifactRef, reviewerID)
	}
	return nil
}

// ===========================================================================
// Fixtures
// ===========================================================================

type testDeps struct {
	audit       *mockAuditStore
	clients     *mockClientRepo
	assignments *mockAssignmentRepo
	training    *mockTrainingGateway
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		audit:       &mockAuditStore{},
		clients:     &mockClientRepo{},
		assignments: &mockAssignmentRepo{},
		training:    &mockTrainingGateway{},
	}
	svc := NewService(slog.Default(), deps.audit, deps.clients, deps.assignments, deps.training)
	return svc, deps
}

func actorCtx() (context.Context, uuid.UUID) {
	actorID := uuid.New()
	return ctxutil.WithActorID(context.Background(), actorID), actorID
}

func makeClient(status domain.ClientStatus) *domain.Client {
	return &domain.Client{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		Name:        "Jordan Reyes",
		ServiceType: domain.ServiceTypeResidential,
		Anchor:      domain.AnchorDate{Month: time.March, Day: 15},
		ArtifactRef: "isp-doc-001",
		Status:      status,
	}
}

func makeAssignment(clientID uuid.UUID) *domain.Assignment {
	return &domain.Assignment{
		ID:           uuid.New(),
		ClientID:     clientID,
		ReviewerID:   uuid.New(),
		ReviewerName: "Casey Nguyen",
		AssignedAt:   time.Now().UTC().AddDate(0, -6, 0),
	}
}

func makeWindow() domain.PlanYear {
	return domain.PlanYear{
		Start: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	}
}

// ===========================================================================
// 1. ResetOne Tests
// ===========================================================================

func TestService_ResetOne_ArchivesSnapshot(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	client := makeClient(domain.ClientStatusActive)
	assignment := makeAssignment(client.ID)
	window := makeWindow()
	completed := time.Date(2024, time.November, 3, 9, 30, 0, 0, time.UTC)

	var resetCalls int
	deps.training.GetCurrentCompletionFunc = func(_ context.Context, ref string, reviewerID uuid.UUID) (*time.Time, error) {
		assert.Equal(t, client.ArtifactRef, ref)
		assert.Equal(t, assignment.ReviewerID, reviewerID)
		return &completed, nil
	}
	deps.training.ResetCompletionFunc = func(_ context.Context, ref string, reviewerID uuid.UUID) error {
		resetCalls++
		return nil
	}

	result, err := svc.ResetOne(context.Background(), client, assignment, window, domain.NotesScheduledRenewal)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)

	assert.False(t, result.AlreadyDone)
	assert.Equal(t, client.ID, result.Entry.ClientID)
	assert.Equal(t, assignment.ReviewerID, result.Entry.ReviewerID)
	assert.Equal(t, assignment.ReviewerName, result.Entry.ReviewerName)
	assert.Equal(t, window.Start, result.Entry.PlanYearStart)
	assert.Equal(t, window.End, result.Entry.PlanYearEnd)
	require.NotNil(t, result.Entry.CompletedAt)
	assert.True(t, result.Entry.CompletedAt.Equal(completed))
	require.NotNil(t, result.Entry.Notes)
	assert.Equal(t, domain.NotesScheduledRenewal, *result.Entry.Notes)
	assert.False(t, result.Entry.IsGap())
	assert.Equal(t, 1, resetCalls)
}

func TestService_ResetOne_MissingSnapshotIsGap(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	client := makeClient(domain.ClientStatusActive)
	assignment := makeAssignment(client.ID)

	deps.training.GetCurrentCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) (*time.Time, error) {
		return nil, nil
	}

	result, err := svc.ResetOne(context.Background(), client, assignment, makeWindow(), domain.NotesScheduledRenewal)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.Nil(t, result.Entry.CompletedAt)
	assert.True(t, result.Entry.IsGap())
}

func TestService_ResetOne_AlreadyDoneSkipsExternalCalls(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	deps.audit.ExistsFunc = func(_ context.Context, _, _ uuid.UUID, _ time.Time) (bool, error) {
		return true, nil
	}
	var externalCalls int
	deps.training.GetCurrentCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) (*time.Time, error) {
		externalCalls++
		return nil, nil
	}
	deps.training.ResetCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) error {
		externalCalls++
		return nil
	}

	client := makeClient(domain.ClientStatusActive)
	result, err := svc.ResetOne(context.Background(), client, makeAssignment(client.ID), makeWindow(), domain.NotesScheduledRenewal)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Nil(t, result.Entry)
	assert.Equal(t, 0, externalCalls)
}

func TestService_ResetOne_LostRaceIsAlreadyDone(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	deps.audit.AppendFunc = func(_ context.Context, _ *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error) {
		return nil, domain.ErrAlreadyExists
	}
	var resetCalls int
	deps.training.ResetCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) error {
		resetCalls++
		return nil
	}

	client := makeClient(domain.ClientStatusActive)
	result, err := svc.ResetOne(context.Background(), client, makeAssignment(client.ID), makeWindow(), domain.NotesScheduledRenewal)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Equal(t, 0, resetCalls, "winner of the race owns the reset")
}

func TestService_ResetOne_SnapshotFailureWritesNothing(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	deps.training.GetCurrentCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) (*time.Time, error) {
		return nil, domain.NewExternalError("training", "get completion", errors.New("connection refused"))
	}
	var appendCalls int
	deps.audit.AppendFunc = func(_ context.Context, entry *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error) {
		appendCalls++
		return entry, nil
	}

	client := makeClient(domain.ClientStatusActive)
	result, err := svc.ResetOne(context.Background(), client, makeAssignment(client.ID), makeWindow(), domain.NotesScheduledRenewal)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternal)
	assert.Nil(t, result)
	assert.Equal(t, 0, appendCalls)
}

func TestService_ResetOne_ResetFailureKeepsAuditEntry(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	deps.training.ResetCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) error {
		return domain.NewExternalError("training", "reset completion", errors.New("status 503"))
	}

	client := makeClient(domain.ClientStatusActive)
	result, err := svc.ResetOne(context.Background(), client, makeAssignment(client.ID), makeWindow(), domain.NotesScheduledRenewal)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternal)
	require.NotNil(t, result, "audit entry must survive a failed live reset")
	assert.NotNil(t, result.Entry)
	assert.False(t, result.AlreadyDone)
}

// ===========================================================================
// 2. ManualReset Tests
// ===========================================================================

func TestService_ManualReset_HappyPath(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, actorID := actorCtx()

	client := makeClient(domain.ClientStatusActive)
	assignment := makeAssignment(client.ID)

	deps.clients.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.Client, error) {
		assert.Equal(t, client.ID, id)
		return client, nil
	}
	deps.assignments.GetOpenFunc = func(_ context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, error) {
		assert.Equal(t, client.ID, clientID)
		assert.Equal(t, assignment.ReviewerID, reviewerID)
		return assignment, nil
	}

	var captured *domain.CompletionLogEntry
	deps.audit.AppendFunc = func(_ context.Context, entry *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error) {
		captured = entry
		out := *entry
		out.ID = uuid.New()
		return &out, nil
	}

	result, events, err := svc.ManualReset(ctx, client.ID, assignment.ReviewerID)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)

	// The window is cut short at "now", not at the upcoming anniversary.
	require.NotNil(t, captured)
	assert.Equal(t, client.Anchor.PlanYear(captured.PlanYearEnd).Start, captured.PlanYearStart)
	assert.WithinDuration(t, time.Now().UTC(), captured.PlanYearEnd, 5*time.Second)
	require.NotNil(t, captured.Notes)
	assert.Equal(t, domain.NotesManualReset, *captured.Notes)

	require.Len(t, events, 1)
	evt, ok := events[0].(domain.ManualResetPerformed)
	require.True(t, ok)
	assert.Equal(t, "isp.manual_reset_performed", evt.EventName())
	assert.Equal(t, client.ID, evt.ClientID)
	assert.Equal(t, assignment.ReviewerID, evt.ReviewerID)
	assert.Equal(t, actorID, evt.PerformedBy)
}

func TestService_ManualReset_NoActor(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()

	_, _, err := svc.ManualReset(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_ManualReset_ArchivedClient(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := actorCtx()

	client := makeClient(domain.ClientStatusArchived)
	deps.clients.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Client, error) {
		return client, nil
	}

	_, _, err := svc.ManualReset(ctx, client.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_ManualReset_NoOpenAssignment(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := actorCtx()

	client := makeClient(domain.ClientStatusActive)
	deps.clients.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Client, error) {
		return client, nil
	}

	_, _, err := svc.ManualReset(ctx, client.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ManualReset_AlreadyDoneEmitsNoEvent(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := actorCtx()

	client := makeClient(domain.ClientStatusActive)
	assignment := makeAssignment(client.ID)

	deps.clients.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Client, error) {
		return client, nil
	}
	deps.assignments.GetOpenFunc = func(_ context.Context, _, _ uuid.UUID) (*domain.Assignment, error) {
		return assignment, nil
	}
	deps.audit.ExistsFunc = func(_ context.Context, _, _ uuid.UUID, _ time.Time) (bool, error) {
		return true, nil
	}

	result, events, err := svc.ManualReset(ctx, client.ID, assignment.ReviewerID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Empty(t, events)
}

func TestService_ManualReset_ResetFailureStillEmitsEvent(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := actorCtx()

	client := makeClient(domain.ClientStatusActive)
	assignment := makeAssignment(client.ID)

	deps.clients.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Client, error) {
		return client, nil
	}
	deps.assignments.GetOpenFunc = func(_ context.Context, _, _ uuid.UUID) (*domain.Assignment, error) {
		return assignment, nil
	}
	deps.training.ResetCompletionFunc = func(_ context.Context, _ string, _ uuid.UUID) error {
		return domain.NewExternalError("training", "reset completion", errors.New("status 502"))
	}

	result, events, err := svc.ManualReset(ctx, client.ID, assignment.ReviewerID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternal)
	require.NotNil(t, result)
	assert.NotNil(t, result.Entry, "audit entry committed before the failed reset")
	assert.Len(t, events, 1)
}
