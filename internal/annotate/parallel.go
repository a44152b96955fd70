package annotate

import (
	"fmt"
	"runtime"
	"sync"
)

// QueryKind selects the resolver operation for a Query.
type QueryKind uint8

const (
	QueryPoint QueryKind = iota
	QueryPair
	QueryRange
)

// Query is one coordinate or coordinate pair to annotate.
type Query struct {
	Kind  QueryKind
	Chrom string
	Start int64
	End   int64 // ignored for QueryPoint
}

// Resolve dispatches q to the matching resolver operation.
func (r *Resolver) Resolve(q Query) Result {
	switch q.Kind {
	case QueryPair:
		return r.AnnotatePair(q.Chrom, q.Start, q.End)
	case QueryRange:
		return r.AnnotateRange(q.Chrom, q.Start, q.End)
	default:
		return r.AnnotatePoint(q.Chrom, q.Start)
	}
}

// WorkItem holds a query ready for annotation.
type WorkItem struct {
	Seq   int
	Query Query
	Extra any // caller-specific data (e.g. the parsed record)
}

// WorkResult holds the annotation output for a single query.
type WorkResult struct {
	Seq    int
	Query  Query
	Result Result
	Extra  any
}

// ParallelResolve annotates work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (r *Resolver) ParallelResolve(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- WorkResult{
					Seq:    item.Seq,
					Query:  item.Query,
					Result: r.Resolve(item.Query),
					Extra:  item.Extra,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed. A gap in the sequence
// numbers is reported once the channel closes.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	if len(pending) > 0 {
		return fmt.Errorf("missing result %d: %d later results were never emitted", nextSeq, len(pending))
	}
	return nil
}

// ResolveAll annotates queries concurrently and returns the results in
// input order.
func (r *Resolver) ResolveAll(queries []Query, workers int) ([]Result, error) {
	items := make(chan WorkItem, len(queries))
	for i, q := range queries {
		items <- WorkItem{Seq: i, Query: q}
	}
	close(items)

	out := make([]Result, 0, len(queries))
	err := OrderedCollect(r.ParallelResolve(items, workers), func(wr WorkResult) error {
		out = append(out, wr.Result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolving queries: %w", err)
	}
	return out, nil
}
