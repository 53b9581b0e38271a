package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for lifecycle operations and
// HTTP traffic.
type Metrics struct {
	mu             sync.Mutex
	operationCount map[string]int64
	failureCount   map[string]int64
	rollbackCount  map[string]int64
	requestCount   map[string]int64
	errorCount     map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		operationCount: make(map[string]int64),
		failureCount:   make(map[string]int64),
		rollbackCount:  make(map[string]int64),
		requestCount:   make(map[string]int64),
		errorCount:     make(map[string]int64),
	}
}

// RecordOperation increments counters for a completed operation.
func (m *Metrics) RecordOperation(operation string, guildID string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	key := operation + "|" + guildID
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationCount[key]++
	if !ok {
		m.failureCount[key]++
	}
}

// RecordRollback increments the rollback counter for an operation.
func (m *Metrics) RecordRollback(operation string, guildID string) {
	if m == nil {
		return
	}
	key := operation + "|" + guildID
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbackCount[key]++
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

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}

// Snapshot returns copies of the counters, for the health endpoint.
func (m *Metrics) Snapshot() (operations, failures, rollbacks map[string]int64) {
	if m == nil {
		return nil, nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	operations = make(map[string]int64, len(m.operationCount))
	failures = make(map[string]int64, len(m.failureCount))
	rollbacks = make(map[string]int64, len(m.rollbackCount))
	for k, v := range m.operationCount {
		operations[k] = v
	}
	for k, v := range m.failureCount {
		failures[k] = v
	}
	for k, v := range m.rollbackCount {
		rollbacks[k] = v
	}
	return operations, failures, rollbacks
}
