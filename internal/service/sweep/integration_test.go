package sweep_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assignmentrepo "github.com/careloop/careplan-backend/internal/adapter/postgres/assignment"
	clientrepo "github.com/careloop/careplan-backend/internal/adapter/postgres/client"
	"github.com/careloop/careplan-backend/internal/adapter/postgres/completionlog"
	"github.com/careloop/careplan-backend/internal/adapter/postgres/testhelper"
	"github.com/careloop/careplan-backend/internal/adapter/training"
	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/internal/service/planreset"
	"github.com/careloop/careplan-backend/internal/service/sweep"
)

// TestSweep_EndToEnd drives a complete sweep against a real database and a
// stub training system: due clients are selected, open reviewers archived
// and reset, and a repeat run is a no-op.
func TestSweep_EndToEnd(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	tenantID := testhelper.SeedTenant(t, pool)

	dueOne := testhelper.SeedClient(t, pool, tenantID, "due one", now.Month(), now.Day())
	dueTwo := testhelper.SeedClient(t, pool, tenantID, "due two", now.Month(), now.Day())
	notDue := testhelper.SeedClient(t, pool, tenantID, "not due", now.AddDate(0, 0, 14).Month(), now.AddDate(0, 0, 14).Day())

	completedReviewer := testhelper.SeedAssignment(t, pool, dueOne, "Casey Nguyen")
	gapReviewer := testhelper.SeedAssignment(t, pool, dueOne, "Robin Okafor")
	testhelper.SeedAssignment(t, pool, dueTwo, "Sam Patel")
	testhelper.SeedAssignment(t, pool, notDue, "Lee Fontaine")

	completedAt := now.AddDate(0, -2, 0).Truncate(time.Second)

	var resetCalls atomic.Int64
	trainingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/reset") {
			resetCalls.Add(1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		// Completion snapshot lookup: only one reviewer has finished.
		if strings.HasSuffix(r.URL.Path, "/"+completedReviewer.String()) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"completed_at":"` + completedAt.Format(time.RFC3339) + `"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer trainingSrv.Close()

	logger := slog.Default()
	clientRepo := clientrepo.New(pool)
	assignmentRepo := assignmentrepo.New(pool)
	logRepo := completionlog.New(pool)
	trainingClient := training.NewClientWithURL(trainingSrv.URL, "0123456789abcdef0123456789abcdef", logger)

	resetSvc := planreset.NewService(logger, logRepo, clientRepo, assignmentRepo, trainingClient)
	sweepSvc := sweep.NewService(logger, clientRepo, assignmentRepo, resetSvc, nil,
		config.SweepConfig{PageSize: 1, RunTimeout: time.Minute})

	summary, err := sweepSvc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.True(t, summary.OK())
	assert.Equal(t, int64(3), resetCalls.Load())

	require.Len(t, summary.Tenants, 1)
	assert.Equal(t, tenantID, summary.Tenants[0].TenantID)
	assert.Len(t, summary.Tenants[0].Clients, 2)

	// The archived entries carry the snapshot where one existed and a gap
	// where it did not.
	entries, err := logRepo.Query(ctx, completionLogFilterFor(dueOne))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	byReviewer := map[uuid.UUID]bool{}
	for _, e := range entries {
		byReviewer[e.ReviewerID] = e.IsGap()
	}
	assert.False(t, byReviewer[completedReviewer])
	assert.True(t, byReviewer[gapReviewer])

	// A repeat run archives nothing new and issues no further resets.
	again, err := sweepSvc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Processed)
	assert.Equal(t, 0, again.Failed)
	assert.Equal(t, int64(3), resetCalls.Load())

	entries, err = logRepo.Query(ctx, completionLogFilterFor(dueOne))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// The not-due client was never touched.
	entries, err = logRepo.Query(ctx, completionLogFilterFor(notDue))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestSweep_EndToEnd_DisabledTenant verifies that clients of a tenant with
// tracking switched off are invisible to the sweep.
func TestSweep_EndToEnd_DisabledTenant(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	tenantID := testhelper.SeedTenant(t, pool)
	_, err := pool.Exec(ctx, `UPDATE tenant_settings SET enabled = false WHERE tenant_id = $1`, tenantID)
	require.NoError(t, err)

	clientID := testhelper.SeedClient(t, pool, tenantID, "invisible", now.Month(), now.Day())
	testhelper.SeedAssignment(t, pool, clientID, "Casey Nguyen")

	logger := slog.Default()
	clientRepo := clientrepo.New(pool)
	assignmentRepo := assignmentrepo.New(pool)
	logRepo := completionlog.New(pool)

	trainingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("training system must not be called for disabled tenants")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer trainingSrv.Close()

	trainingClient := training.NewClientWithURL(trainingSrv.URL, "0123456789abcdef0123456789abcdef", logger)
	resetSvc := planreset.NewService(logger, logRepo, clientRepo, assignmentRepo, trainingClient)
	sweepSvc := sweep.NewService(logger, clientRepo, assignmentRepo, resetSvc, nil,
		config.SweepConfig{PageSize: 200, RunTimeout: time.Minute})

	summary, err := sweepSvc.Run(ctx)
	require.NoError(t, err)

	// Other tests may have seeded due clients into the shared database, so
	// only the disabled tenant's absence is asserted.
	for _, ts := range summary.Tenants {
		assert.NotEqual(t, tenantID, ts.TenantID)
	}

	entries, err := logRepo.Query(ctx, completionLogFilterFor(clientID))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func completionLogFilterFor(clientID uuid.UUID) domain.CompletionLogFilter {
	id := clientID
	return domain.CompletionLogFilter{ClientID: &id}
}
