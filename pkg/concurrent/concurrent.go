package concurrent

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tickforge/tickforge/pkg/sequence"
)

// Concurrent runs the action function for each element of the iterator in a
// separate goroutine and waits for all of them to finish. If action returns
// an error, the first error encountered is returned.
func Concurrent[T any](i *sequence.Iterator[T], action func(T) error) error {
	errGroup := errgroup.Group{}
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}

		errGroup.Go(func() error {
			return action(value)
		})
	}

	return errGroup.Wait()
}

// Throttle runs the action for each element with at most limit goroutines in
// flight, waiting for all of them to finish.
func Throttle[T any](i *sequence.Iterator[T], limit int, action func(T) error) error {
	errGroup := errgroup.Group{}
	errGroup.SetLimit(limit)
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}

		errGroup.Go(func() error {
			return action(value)
		})
	}

	return errGroup.Wait()
}

// ParallelMust runs the action for each element in a separate goroutine and
// waits for all of them to finish.
func ParallelMust[T any](i *sequence.Iterator[T], action func(T)) {
	wg := sync.WaitGroup{}
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}

		wg.Add(1)
		go func(value T) {
			defer wg.Done()
			action(value)
		}(value)
	}

	wg.Wait()
}
