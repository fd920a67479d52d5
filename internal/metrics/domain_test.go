package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(gateRejections.WithLabelValues("forbidden"))
	GateRejected("forbidden")
	require.Equal(t, before+1, testutil.ToFloat64(gateRejections.WithLabelValues("forbidden")))

	created := testutil.ToFloat64(seoUpserts.WithLabelValues("created"))
	updated := testutil.ToFloat64(seoUpserts.WithLabelValues("updated"))
	SEOUpserted(true)
	SEOUpserted(false)
	SEOUpserted(false)
	require.Equal(t, created+1, testutil.ToFloat64(seoUpserts.WithLabelValues("created")))
	require.Equal(t, updated+2, testutil.ToFloat64(seoUpserts.WithLabelValues("updated")))

	removed := testutil.ToFloat64(orphansRemoved)
	OrphansRemoved(3)
	require.Equal(t, removed+3, testutil.ToFloat64(orphansRemoved))
}
