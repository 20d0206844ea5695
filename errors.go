package flashsort

import "errors"

// ErrIoFailure is returned when a page read or output write is short.
var ErrIoFailure = errors.New("flashsort: io failure")

// ErrConfig is returned by NewEngine when the caller-supplied parameters
// cannot produce a valid region layout.
var ErrConfig = errors.New("flashsort: invalid configuration")

// ErrInvariant is returned when Next's locate phase exhausts a region
// without finding the region's advertised minimum. Under a correct Init
// this can never happen; seeing it means init and the iterator disagree
// about key extraction.
var ErrInvariant = errors.New("flashsort: region index invariant violated")
