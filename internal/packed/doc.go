// Package packed stores several small unsigned fields in one machine word.
//
// A Layout is built once from an ordered list of bit widths and then used to
// read and write fields of caller-owned words:
//
//	// day of month, data type, device type, page views
//	layout, err := packed.New32(5, 1, 1, 16)
//	if err != nil {
//		return err
//	}
//
//	var w uint32
//	w = layout.Set(w, 0, 13)
//	w = layout.Set(w, 3, 34)
//
//	day := layout.Get(w, 0) // 13
//	pv := layout.Get(w, 3)  // 34
//
// The word layout for a field X looks like this, most significant bit first:
//
//	+----------+-----+---------+
//	|    A     |  X  |    B    |
//	+----------+-----+---------+
//
// Get masks out A and B and shifts X down. Set clears X, shifts the new value
// into place, masks it so it cannot spill into A, and ORs it back in.
//
// Values are not range checked at Set time. A value wider than its field
// wraps modulo 2^width. Field indexes are checked, and an out-of-range index
// panics with an error wrapping ErrOutOfBounds.
//
// A Layout is never modified after construction and may be shared between
// goroutines.
package packed
