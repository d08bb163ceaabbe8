package memo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/wippyai/jar-remapper/errors"
)

var cycleErr = &rerrors.Error{Phase: rerrors.PhaseRemap, Kind: rerrors.KindCycle}

func TestComputeOnce(t *testing.T) {
	var c Cache[int]
	var calls atomic.Int32

	compute := func(context.Context) (int, bool, error) {
		calls.Add(1)
		return 42, true, nil
	}
	for range 3 {
		v, ok, err := c.Get(context.Background(), "k", compute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestNegativeResultIsKept(t *testing.T) {
	var c Cache[string]
	var calls int

	for range 2 {
		_, ok, err := c.Get(context.Background(), "missing", func(context.Context) (string, bool, error) {
			calls++
			return "", false, nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, calls)

	_, ok, cached := c.Peek("missing")
	assert.True(t, cached)
	assert.False(t, ok)
}

func TestErrorsAreNotKept(t *testing.T) {
	var c Cache[int]
	boom := errors.New("boom")
	var calls int

	_, _, err := c.Get(context.Background(), "k", func(context.Context) (int, bool, error) {
		calls++
		return 0, false, boom
	})
	assert.ErrorIs(t, err, boom)

	v, ok, err := c.Get(context.Background(), "k", func(context.Context) (int, bool, error) {
		calls++
		return 7, true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestConcurrentCallersShareOneComputation(t *testing.T) {
	var c Cache[int]
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	compute := func(context.Context) (int, bool, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 1, true, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = c.Get(context.Background(), "k", compute)
	}()
	<-started
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = c.Get(context.Background(), "k", compute)
		}(i)
	}
	// let the waiters block on the flight
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 1, r)
	}
}

func TestSelfReferenceIsACycle(t *testing.T) {
	var c Cache[int]

	var compute func(ctx context.Context) (int, bool, error)
	compute = func(ctx context.Context) (int, bool, error) {
		_, _, err := c.Get(ctx, "a", compute)
		return 0, false, err
	}
	_, _, err := c.Get(context.Background(), "a", compute)
	require.Error(t, err)
	assert.ErrorIs(t, err, cycleErr)

	var e *rerrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"a", "a"}, e.Path)
}

func TestIndirectCycleAcrossKeys(t *testing.T) {
	var c Cache[int]

	var computeA, computeB func(ctx context.Context) (int, bool, error)
	computeA = func(ctx context.Context) (int, bool, error) {
		return c.Get(ctx, "b", computeB)
	}
	computeB = func(ctx context.Context) (int, bool, error) {
		return c.Get(ctx, "a", computeA)
	}
	_, _, err := c.Get(context.Background(), "a", computeA)
	assert.ErrorIs(t, err, cycleErr)
	assert.Equal(t, 0, c.Len())
}

func TestCycleAcrossGoroutines(t *testing.T) {
	var c Cache[int]
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	var computeA, computeB func(ctx context.Context) (int, bool, error)
	computeA = func(ctx context.Context) (int, bool, error) {
		close(aStarted)
		<-bStarted
		return c.Get(ctx, "b", computeB)
	}
	computeB = func(ctx context.Context) (int, bool, error) {
		close(bStarted)
		<-aStarted
		return c.Get(ctx, "a", computeA)
	}

	errs := make(chan error, 2)
	go func() {
		_, _, err := c.Get(context.Background(), "a", computeA)
		errs <- err
	}()
	go func() {
		_, _, err := c.Get(context.Background(), "b", computeB)
		errs <- err
	}()

	timeout := time.After(5 * time.Second)
	for range 2 {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, cycleErr)
		case <-timeout:
			t.Fatal("lookups deadlocked")
		}
	}
}

func TestNestedLookupsOfDifferentKeys(t *testing.T) {
	var c Cache[int]

	v, ok, err := c.Get(context.Background(), "outer", func(ctx context.Context) (int, bool, error) {
		inner, _, err := c.Get(ctx, "inner", func(context.Context) (int, bool, error) {
			return 2, true, nil
		})
		return inner * 10, true, err
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20, v)
	assert.Equal(t, 2, c.Len())
}

func TestWaiterHonorsContext(t *testing.T) {
	var c Cache[int]
	release := make(chan struct{})
	started := make(chan struct{})
	defer close(release)

	go func() {
		_, _, _ = c.Get(context.Background(), "slow", func(context.Context) (int, bool, error) {
			close(started)
			<-release
			return 1, true, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err := c.Get(ctx, "slow", func(context.Context) (int, bool, error) {
		t.Error("second computation started")
		return 0, false, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPanickingComputeReleasesKey(t *testing.T) {
	var c Cache[int]
	started := make(chan struct{})

	waiterErr := make(chan error, 1)
	go func() {
		<-started
		_, _, err := c.Get(context.Background(), "boom", func(context.Context) (int, bool, error) {
			// joined after the panic retired the flight
			return 0, false, nil
		})
		waiterErr <- err
	}()

	assert.PanicsWithValue(t, "bad class", func() {
		_, _, _ = c.Get(context.Background(), "boom", func(context.Context) (int, bool, error) {
			close(started)
			time.Sleep(20 * time.Millisecond)
			panic("bad class")
		})
	})

	select {
	case err := <-waiterErr:
		if err != nil {
			assert.ErrorIs(t, err, &rerrors.Error{Phase: rerrors.PhaseRemap, Kind: rerrors.KindInvalidData})
		}
	case <-time.After(time.Second):
		t.Fatal("waiter still blocked after the computation panicked")
	}

	c2 := &Cache[int]{}
	assert.Panics(t, func() {
		_, _, _ = c2.Get(context.Background(), "k", func(context.Context) (int, bool, error) {
			panic("bad class")
		})
	})
	v, ok, err := c2.Get(context.Background(), "k", func(context.Context) (int, bool, error) {
		return 7, true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}
