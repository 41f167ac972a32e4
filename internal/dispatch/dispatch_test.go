package dispatch

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	d := New(0, 0)
	if d.GroupSize() != DefaultGroupSize {
		t.Errorf("expected group size %d, got %d", DefaultGroupSize, d.GroupSize())
	}
	if d.Workers() != runtime.NumCPU() {
		t.Errorf("expected %d workers, got %d", runtime.NumCPU(), d.Workers())
	}
}

func TestGroups(t *testing.T) {
	d := New(128, 4)
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{128, 1},
		{129, 2},
		{625, 5},
		{40000, 313},
	}
	for _, tt := range tests {
		if got := d.Groups(tt.n); got != tt.want {
			t.Errorf("Groups(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestDispatchVisitsEveryItemOnce(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		d := New(16, workers)
		n := 1000
		hits := make([]int32, n)

		if err := d.Dispatch(n, func(i int) { atomic.AddInt32(&hits[i], 1) }); err != nil {
			t.Fatalf("workers=%d: dispatch failed: %v", workers, err)
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("workers=%d: item %d visited %d times", workers, i, h)
			}
		}
	}
}

func TestDispatchIsABarrier(t *testing.T) {
	d := New(8, 4)
	n := 257
	var done int64

	if err := d.Dispatch(n, func(i int) { atomic.AddInt64(&done, 1) }); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&done); got != int64(n) {
		t.Errorf("expected %d completed items after Dispatch returned, got %d", n, got)
	}
}

func TestDispatchRecoversFault(t *testing.T) {
	d := New(10, 4)
	var ran int64

	err := d.Dispatch(100, func(i int) {
		if i == 42 {
			panic("boom")
		}
		atomic.AddInt64(&ran, 1)
	})

	var fault *FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected FaultError, got %v", err)
	}
	if fault.Group != 4 {
		t.Errorf("expected group 4, got %d", fault.Group)
	}
	// items 43..49 of the faulting group never run
	if got := atomic.LoadInt64(&ran); got != 92 {
		t.Errorf("expected 92 items to run, got %d", got)
	}
}

func TestDispatchEmpty(t *testing.T) {
	d := New(128, 2)
	called := false
	if err := d.Dispatch(0, func(int) { called = true }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("kernel called for empty dispatch")
	}
}

func BenchmarkDispatch(b *testing.B) {
	d := New(DefaultGroupSize, 0)
	buf := make([]float32, 100*100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = d.Dispatch(len(buf), func(v int) { buf[v] += 1 })
	}
}
