// Package flashsort implements Flash MinSort (Cossentine/Lawrence 2010): an
// external sorting engine for record sequences stored on block-addressable
// flash storage, bounded to a fixed caller-supplied RAM budget independent
// of input size and performing zero intermediate writes.
package flashsort
