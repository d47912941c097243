package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sterling9879/Sage-IA/internal/metrics"
)

type fakeResetter struct {
	calls int
	n     int64
	err   error
}

func (f *fakeResetter) ResetDailyUsage(context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResetQuotas(t *testing.T) {
	users := &fakeResetter{n: 7}
	m := NewManager(users, testLogger())

	before := testutil.ToFloat64(metrics.QuotaResets)
	n, err := m.ResetQuotas(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 7, n)
	assert.Equal(t, 1, users.calls)
	assert.Equal(t, before+7, testutil.ToFloat64(metrics.QuotaResets))
}

func TestResetQuotas_Error(t *testing.T) {
	m := NewManager(&fakeResetter{err: errors.New("db down")}, testLogger())

	_, err := m.ResetQuotas(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestQuotaResetSchedule_UTCMidnight(t *testing.T) {
	schedule, err := cron.ParseStandard(QuotaResetSchedule)
	require.NoError(t, err)

	saoPaulo := time.FixedZone("BRT", -3*60*60)
	from := time.Date(2025, 6, 10, 22, 30, 0, 0, saoPaulo) // 01:30 UTC on the 11th

	next := schedule.Next(from.UTC())
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), next)
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager(&fakeResetter{}, testLogger())
	require.NoError(t, m.Start())

	entries := m.cron.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, time.UTC, entries[0].Next.Location())
	assert.Zero(t, entries[0].Next.Hour())

	m.Stop()
}
