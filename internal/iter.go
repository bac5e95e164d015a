package internal

import (
	"iter"
)

// IterSeq2Concat joins key/value sequences end to end. Iteration stops
// early when the consumer stops.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			stopped := false
			seq(func(k K, v V) bool {
				stopped = !yield(k, v)
				return !stopped
			})
			if stopped {
				return
			}
		}
	}
}
