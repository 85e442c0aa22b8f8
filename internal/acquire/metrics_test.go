// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt(time.Second)
	m.IncError(httputil.KindTimeout)
	m.IncRetries()
	m.ObserveOutcome(types.FetchOutcome{Status: types.FetchSuccess})
	assert.NoError(t, m.WriteFile("ignored"))
}

func TestMetrics_Counts(t *testing.T) {
	m := NewMetrics()
	m.ObserveAttempt(10 * time.Millisecond)
	m.ObserveAttempt(20 * time.Millisecond)
	m.IncError(httputil.KindHTTPStatus)
	m.IncRetries()
	m.ObserveOutcome(types.FetchOutcome{Status: types.FetchSuccess, Bytes: 100})
	m.ObserveOutcome(types.FetchOutcome{Status: types.FetchSkipped, Bytes: 50})
	m.ObserveOutcome(types.FetchOutcome{Status: types.FetchFailed, Err: errors.New("x")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("http_status")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutcomesTotal.WithLabelValues("skipped")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.BytesTotal))
}

func TestMetrics_WriteFile(t *testing.T) {
	m := NewMetrics()
	m.IncRetries()

	path := filepath.Join(t.TempDir(), "sheet2pdf.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sheet2pdf_retries_total 1")
}
