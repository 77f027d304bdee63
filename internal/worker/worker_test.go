package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/simulator"
)

type countingSource struct {
	mu    sync.Mutex
	loads int
}

func (c *countingSource) MonitorTickets(context.Context) ([]domain.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	return nil, nil
}

func (c *countingSource) Slots(context.Context) ([]domain.Slot, error) {
	return []domain.Slot{{ID: "A-1", ZoneID: "A", Row: 1, Column: 1, Tier: 1, Available: true}}, nil
}

func (c *countingSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func TestStartSimulator_StopWaitsForRun(t *testing.T) {
	src := &countingSource{}
	var mu sync.Mutex
	var steps []string
	sim := simulator.New(src,
		simulator.WithIntervals(5*time.Millisecond, 5*time.Millisecond),
		simulator.WithStepObserver(func(result string) {
			mu.Lock()
			defer mu.Unlock()
			steps = append(steps, result)
		}),
	)

	stop := StartSimulator(context.Background(), sim, nil)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(steps) > 0
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		stop()
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
	assert.Equal(t, 1, src.count())
	mu.Lock()
	assert.Equal(t, "idle", steps[0])
	mu.Unlock()
}

func TestStartSimulator_StopRightAfterStart(t *testing.T) {
	sim := simulator.New(&countingSource{}, simulator.WithIntervals(time.Hour, time.Hour))

	stop := StartSimulator(context.Background(), sim, nil)
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
}

func TestStartSimulator_Nil(t *testing.T) {
	stop := StartSimulator(context.Background(), nil, nil)
	assert.NotPanics(t, stop)
	assert.NotPanics(t, func() { StartNotificationWorker(nil) })
}
