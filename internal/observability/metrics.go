package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	deliverySuccess map[string]int64
	deliveryFailure map[string]int64
	transitionCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		deliverySuccess: make(map[string]int64),
		deliveryFailure: make(map[string]int64),
		transitionCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordDelivery adds notification outcomes for an action.
func (m *Metrics) RecordDelivery(action string, success, failed int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverySuccess[action] += int64(success)
	m.deliveryFailure[action] += int64(failed)
}

// RecordTransition counts committed ticket actions.
func (m *Metrics) RecordTransition(action string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCount[action]++
}

// DeliveryTotals returns the accumulated success and failure counts for an action.
func (m *Metrics) DeliveryTotals(action string) (success, failed int64) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliverySuccess[action], m.deliveryFailure[action]
}

// Snapshot copies every counter for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests":          copyCounts(m.requestCount),
		"errors":            copyCounts(m.errorCount),
		"delivery_success":  copyCounts(m.deliverySuccess),
		"delivery_failure":  copyCounts(m.deliveryFailure),
		"ticket_transition": copyCounts(m.transitionCount),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
