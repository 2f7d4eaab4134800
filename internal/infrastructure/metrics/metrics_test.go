package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ruleout-server/internal/domain/chat"
)

func TestChatObserver(t *testing.T) {
	obs := ChatObserver{}
	before := testutil.ToFloat64(StreamOutcomesTotal.WithLabelValues(chat.OutcomeCancelled))

	obs.StreamStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(ActiveStreams))
	obs.EventReceived(chat.StatusSearching)
	obs.StreamFinished(chat.OutcomeCancelled)

	assert.Equal(t, float64(0), testutil.ToFloat64(ActiveStreams))
	assert.Equal(t, before+1, testutil.ToFloat64(StreamOutcomesTotal.WithLabelValues(chat.OutcomeCancelled)))
	assert.Equal(t, float64(1), testutil.ToFloat64(UpstreamEventsTotal.WithLabelValues("searching")))
}

func TestRecordStorageOp(t *testing.T) {
	RecordStorageOp("local", "put", nil, time.Millisecond)
	RecordStorageOp("local", "put", errors.New("disk full"), time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("local", "put", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("local", "put", "error")))
}
