package probe

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-solar-forecast/internal/logger"
)

const probeTimeout = 5 * time.Second

// Target is one upstream endpoint whose reachability is tracked for the
// health endpoint.
type Target struct {
	Name string
	URL  string
}

// Monitor periodically probes upstream endpoints off the request path.
// Each target gets its own circuit breaker so a flapping upstream is
// reported as degraded without being hammered.
type Monitor struct {
	scheduler *gocron.Scheduler
	client    *http.Client
	targets   []Target
	breakers  map[string]*gobreaker.CircuitBreaker
	interval  time.Duration

	mu     sync.RWMutex
	status map[string]string
}

// New creates a Monitor probing targets every interval.
func New(client *http.Client, targets []Target, interval time.Duration) *Monitor {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(targets))
	status := make(map[string]string, len(targets))
	for _, t := range targets {
		breakers[t.Name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        t.Name,
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
		status[t.Name] = "unknown"
	}

	return &Monitor{
		scheduler: gocron.NewScheduler(time.UTC),
		client:    client,
		targets:   targets,
		breakers:  breakers,
		interval:  interval,
		status:    status,
	}
}

// Start schedules the periodic probe job and runs one round immediately.
func (m *Monitor) Start() error {
	if len(m.targets) == 0 {
		logger.Info("probe: no targets configured; nothing to schedule")
		return nil
	}

	minutes := int(m.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	_, err := m.scheduler.Every(minutes).Minutes().Do(m.runOnce)
	if err != nil {
		return err
	}

	m.scheduler.StartAsync()
	go m.runOnce()
	return nil
}

// Stop stops the scheduler and cancels any future probes.
func (m *Monitor) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

// Status returns the last observed reachability per target.
func (m *Monitor) Status() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.status))
	for k, v := range m.status {
		out[k] = v
	}
	return out
}

func (m *Monitor) runOnce() {
	var wg sync.WaitGroup
	for _, t := range m.targets {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.set(t.Name, m.probe(t))
		}()
	}
	wg.Wait()
}

func (m *Monitor) probe(t Target) string {
	_, err := m.breakers[t.Name].Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		resp.Body.Close()
		return nil, nil
	})

	switch {
	case err == nil:
		return "ok"
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		return "open"
	default:
		logger.Warnf("probe: %s unreachable: %v", t.Name, err)
		return "unreachable"
	}
}

func (m *Monitor) set(name, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[name] = state
}
