package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	scraperRuns         int
	tournamentsIngested int
	setsRated           float64
	reconcileWarnings   float64
	recomputeDurations  []float64
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		recomputeDurations: make([]float64, 0),
	}
}

func (m *Mock) IncScraperRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scraperRuns++
}

func (m *Mock) IncTournamentsIngested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tournamentsIngested++
}

func (m *Mock) AddSetsRated(count float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setsRated += count
}

func (m *Mock) AddReconcileWarnings(count float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileWarnings += count
}

func (m *Mock) ObserveRecomputeDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputeDurations = append(m.recomputeDurations, duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ScraperRuns returns the number of times IncScraperRuns was called.
func (m *Mock) ScraperRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scraperRuns
}

// TournamentsIngested returns the number of times IncTournamentsIngested was called.
func (m *Mock) TournamentsIngested() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tournamentsIngested
}

// SetsRated returns the running total passed to AddSetsRated.
func (m *Mock) SetsRated() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setsRated
}

// ReconcileWarnings returns the running total passed to AddReconcileWarnings.
func (m *Mock) ReconcileWarnings() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconcileWarnings
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

var _ Metrics = (*Mock)(nil)
