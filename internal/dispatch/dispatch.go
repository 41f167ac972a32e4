// Package dispatch runs per-item kernels over fixed-size workgroups.
//
// A call to [Dispatcher.Dispatch] splits [0, n) into ceil(n/groupSize)
// workgroups, runs them on at most `workers` goroutines and returns once every
// group has finished. That return is the only synchronisation point: work
// items inside one dispatch have no ordering guarantee among themselves.
package dispatch

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultGroupSize is the number of work items per workgroup.
const DefaultGroupSize = 128

// Kernel processes a single work item.
type Kernel func(i int)

// FaultError reports a workgroup that panicked.
type FaultError struct {
	Group int
	Value any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("dispatch: workgroup %d faulted: %v", e.Group, e.Value)
}

type Dispatcher struct {
	groupSize int
	workers   int
}

// New returns a dispatcher. Non-positive arguments select the defaults
// (DefaultGroupSize, runtime.NumCPU()).
func New(groupSize, workers int) *Dispatcher {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Dispatcher{groupSize: groupSize, workers: workers}
}

func (d *Dispatcher) GroupSize() int { return d.groupSize }
func (d *Dispatcher) Workers() int   { return d.workers }

// Groups returns the number of workgroups needed for n items.
func (d *Dispatcher) Groups(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + d.groupSize - 1) / d.groupSize
}

// Dispatch runs kernel for every i in [0, n) and blocks until all groups are
// done. The first faulting group's error is returned; the remaining groups
// still run to completion.
func (d *Dispatcher) Dispatch(n int, kernel Kernel) error {
	groups := d.Groups(n)
	if groups == 0 {
		return nil
	}

	if groups == 1 || d.workers == 1 {
		var first error
		for g := 0; g < groups; g++ {
			if err := d.runGroup(g, n, kernel); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	var eg errgroup.Group
	eg.SetLimit(d.workers)
	for g := 0; g < groups; g++ {
		eg.Go(func() error {
			return d.runGroup(g, n, kernel)
		})
	}
	return eg.Wait()
}

func (d *Dispatcher) runGroup(g, n int, kernel Kernel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Group: g, Value: r}
		}
	}()

	start := g * d.groupSize
	end := start + d.groupSize
	if end > n {
		end = n
	}
	for i := start; i < end; i++ {
		kernel(i)
	}
	return nil
}
