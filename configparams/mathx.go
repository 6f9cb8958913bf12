package configparams

import "golang.org/x/exp/constraints"

// between reports lo <= v && v <= hi, order-insensitive. Adapted from the
// teacher repo's x/mathx.Between, used here for the FiRa parameter range
// checks (session priority, proximity bounds) instead of repeating the
// swap-then-compare logic inline at each setter.
func between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}
