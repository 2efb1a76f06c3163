package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsDeliveryTotals(t *testing.T) {
	m := NewMetrics()
	m.RecordDelivery("RESOLVE", 1, 0)
	m.RecordDelivery("RESOLVE", 0, 1)
	m.RecordDelivery("CREATED", 3, 2)

	success, failed := m.DeliveryTotals("RESOLVE")
	assert.Equal(t, int64(1), success)
	assert.Equal(t, int64(1), failed)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap["delivery_success"]["CREATED"])
	assert.Equal(t, int64(2), snap["delivery_failure"]["CREATED"])
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordDelivery("CLOSE", 1, 0)
	success, failed := m.DeliveryTotals("CLOSE")
	assert.Zero(t, success)
	assert.Zero(t, failed)
	assert.Nil(t, m.Snapshot())
}
