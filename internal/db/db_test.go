package db

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/posture.report/internal/breathing"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/session"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSummary(id, activity string, started time.Time) session.Summary {
	return session.Summary{
		SessionID:       id,
		Activity:        activity,
		Kind:            reference.KindMeditation,
		StartedAt:       started,
		DurationSeconds: 61.5,
		Frames:          120,
		UsableFrames:    100,
		BestAccuracy:    97.5,
		AvgAccuracy:     88.25,
		BreathingScore:  72,
		BreathingStates: map[breathing.State]int{breathing.StateCalm: 80, breathing.StateAnalyzing: 20},
		Metrics: []session.Metric{
			{Name: session.MetricPosture, Percent: 90},
			{Name: session.MetricHeadAlignment, Percent: 75},
		},
		Feedback: []string{"Keep your head straight."},
		Tips:     []string{"Keep your head upright and straight."},
		Timeline: []session.Sample{{Offset: 0, Accuracy: 90, Visible: true, Breathing: breathing.StateAnalyzing}},
	}
}

func TestPragmasApplied(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	var journal string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)

	var busy, sync, temp, fk int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busy))
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&sync))
	require.NoError(t, db.QueryRow("PRAGMA temp_store").Scan(&temp))
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 5000, busy)
	assert.Equal(t, 1, sync) // NORMAL
	assert.Equal(t, 2, temp) // MEMORY
	assert.Equal(t, 1, fk)
}

func TestNewDB_IsMigratedAndReopenable(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	migFS, err := getMigrationsFS()
	require.NoError(t, err)
	v, dirty, err := db.MigrateVersion(migFS)
	require.NoError(t, err)
	latest, err := LatestMigrationVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, latest, v)
	assert.False(t, dirty)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestSaveAndGetSession(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	want := testSummary("s-1", "meditation", time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC))
	require.NoError(t, db.SaveSummary(ctx, want))

	got, err := db.GetSession(ctx, "s-1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary round trip mismatch (-want +got):\n%s", diff)
	}

	_, err = db.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveSummary_ReplacesMetrics(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	s := testSummary("s-1", "meditation", time.Unix(1700000000, 0).UTC())
	require.NoError(t, db.SaveSummary(ctx, s))
	s.Metrics = []session.Metric{{Name: session.MetricPosture, Percent: 50}}
	require.NoError(t, db.SaveSummary(ctx, s))

	recs, err := db.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, s.Metrics, recs[0].Metrics)
}

func TestListSessions_FilterAndOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"squat", "meditation", "squat", "pushup"} {
		s := testSummary(string(rune('a'+i)), name, base.Add(time.Duration(i)*time.Hour))
		s.Degenerate = name == "pushup"
		require.NoError(t, db.SaveSummary(ctx, s))
	}

	all, err := db.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.SessionID)
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids)
	assert.True(t, all[0].Degenerate)
	assert.Equal(t, base.Add(3*time.Hour), all[0].StartedAt)
	assert.Equal(t, "meditation", all[0].Kind)

	squats, err := db.ListSessions(ctx, SessionFilter{Activity: "squat"})
	require.NoError(t, err)
	assert.Len(t, squats, 2)

	recent, err := db.ListSessions(ctx, SessionFilter{Since: base.Add(90 * time.Minute), Limit: 1})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "d", recent[0].SessionID)
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveSummary(ctx, testSummary("gone", "squat", time.Now())))
	require.NoError(t, db.DeleteSession(ctx, "gone"))
	assert.ErrorIs(t, db.DeleteSession(ctx, "gone"), ErrSessionNotFound)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM session_metrics").Scan(&n))
	assert.Equal(t, 0, n, "metrics cascade with the session")
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	for _, path := range []string{"/debug/backup", "/debug/tailsql/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "127.0.0.1:1234"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.NotEqual(t, http.StatusNotFound, rec.Code, path)

		// Debug access may be refused outside a tailnet.
		if path == "/debug/backup" && rec.Code == http.StatusOK {
			assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x1f, 0x8b}), "gzip magic")
		}
	}
}
