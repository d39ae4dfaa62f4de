// Package pipeline implements the three-stage driver described in §4.J and
// §5: a serial, ordered input filter; a bounded-parallel transform filter
// whose items complete in any order; and a serial output filter that
// re-establishes input order before emitting.
//
// This is adapted directly from the teacher's
// grailbio-bio/cmd/bio-pamtool/cmd/view.go's viewShards: a worker pool
// reads from a work channel and inserts each result into a
// github.com/grailbio/base/syncqueue.OrderedQueue keyed by index, a single
// display/output goroutine drains the queue in order, and a
// github.com/grailbio/base/errors.Once captures the first fatal error from
// any stage. The one structural change: viewShards sizes its OrderedQueue
// to the known total shard count; a FASTA stream has no such upfront
// count, so the queue is sized to the worker pool width (jobs) instead --
// enough outstanding slots for every in-flight transform, since the output
// filter drains items as soon as they complete in order.
package pipeline

import (
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/syncqueue"
)

// Input is one unit of work pulled from the serial input filter: the
// sequence's position in the stream, its name, and its raw (unaligned)
// nucleotides.
type Input struct {
	Index  int
	Name   string
	RawSeq []byte
}

// Output is one transformed item, ready for the serial output filter.
// Result holds whatever the caller's TransformFunc produced (an
// analysis.Result, typically) and is nil when HasError is set.
type Output struct {
	Index    int
	Name     string
	Result   interface{}
	Warnings []string
	HasError bool
	Error    error
}

// NextFunc pulls the next input from the stream. A non-nil error is fatal
// (§7); (Input{}, false, nil) signals a clean end of stream.
type NextFunc func() (Input, bool, error)

// TransformFunc runs the per-sequence analysis (§4.J stage 2: align,
// analyse, translate, QC, tree-assign). An error here is captured on the
// Output, not treated as fatal.
type TransformFunc func(Input) (result interface{}, warnings []string, err error)

// EmitFunc writes one ordered Output. A non-nil error is fatal.
type EmitFunc func(Output) error

// Run drives the pipeline to completion, returning the first fatal error
// encountered in the input or output filter (nil on a clean run). Per-item
// transform errors never cause Run to return early; they are delivered to
// emit via Output.HasError/Output.Error in strict index order.
func Run(jobs int, next NextFunc, transform TransformFunc, emit EmitFunc) error {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}

	fatal := errors.Once{}
	oq := syncqueue.NewOrderedQueue(jobs)

	inputCh := make(chan Input, jobs)

	var workers sync.WaitGroup
	for i := 0; i < jobs; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for in := range inputCh {
				result, warnings, err := transform(in)
				out := Output{Index: in.Index, Name: in.Name, Result: result, Warnings: warnings}
				if err != nil {
					out.HasError = true
					out.Error = err
					out.Result = nil
				}
				if insertErr := oq.Insert(in.Index, out); insertErr != nil {
					fatal.Set(insertErr)
				}
			}
		}()
	}

	go func() {
		defer close(inputCh)
		for {
			in, ok, err := next()
			if err != nil {
				fatal.Set(err)
				return
			}
			if !ok {
				return
			}
			inputCh <- in
		}
	}()

	var outputDone sync.WaitGroup
	outputDone.Add(1)
	go func() {
		defer outputDone.Done()
		for {
			val, ok, err := oq.Next()
			if err != nil {
				fatal.Set(err)
				return
			}
			if !ok {
				return
			}
			if emitErr := emit(val.(Output)); emitErr != nil {
				fatal.Set(emitErr)
				return
			}
		}
	}()

	workers.Wait()
	if err := oq.Close(nil); err != nil {
		fatal.Set(err)
	}
	outputDone.Wait()
	return fatal.Err()
}
