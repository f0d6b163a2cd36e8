package managers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/internal/types"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"go.uber.org/zap"
)

var nop = zap.NewNop().Sugar()

type fakeEngine struct {
	c      chan types.DriverReading
	health error
}

func (f *fakeEngine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.DriverReading {
	return f.c
}

func (f *fakeEngine) CheckHealth(ctx context.Context) error { return f.health }

func TestStorageManagerFansOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	s, err := NewStorageManager(ctx, &wg, config.StorageData{}, nop)
	if err != nil {
		t.Fatalf("NewStorageManager() error = %v", err)
	}

	a := &fakeEngine{c: make(chan types.DriverReading, 1)}
	b := &fakeEngine{c: make(chan types.DriverReading, 1), health: errors.New("connection refused")}
	s.AddEngine(ctx, &wg, "a", a)
	s.AddEngine(ctx, &wg, "b", b)

	s.Record("day", host.Driver{Name: "GV0", Value: 71.2, UOM: units.UOMFahrenheit})

	for name, e := range map[string]*fakeEngine{"a": a, "b": b} {
		select {
		case r := <-e.c:
			if r.Node != "day" || r.Driver != "GV0" || r.Value != 71.2 || r.UOM != units.UOMFahrenheit {
				t.Errorf("engine %s got %+v", name, r)
			}
			if r.Time.IsZero() {
				t.Errorf("engine %s got reading without time", name)
			}
		case <-time.After(time.Second):
			t.Errorf("engine %s did not receive the reading", name)
		}
	}

	health := s.Health(ctx)
	if health["a"] != "healthy" || health["b"] != "connection refused" {
		t.Errorf("Health() = %v", health)
	}

	cancel()
	wg.Wait()
}

func TestStorageManagerDropsWhenFull(t *testing.T) {
	// No distributor running, so the queue fills up
	s := &StorageManager{ReadingDistributor: make(chan types.DriverReading, 1), logger: nop}

	s.Record("wl", host.Driver{Name: "CLITEMP"})
	s.Record("wl", host.Driver{Name: "CLIHUM"})

	if s.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", s.Dropped())
	}
}
