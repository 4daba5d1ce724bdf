package wmo

// MaxWW selects the most significant ww among codes. The numerically
// highest code wins with two exceptions: 17 (thunderstorm without
// precipitation) outranks 20..49, and 28 outranks 40 when codes between
// 29 and 39 were seen as well.
//
// The 28-over-40 condition is only partially defined by the WMO ranking
// notes; this implements the documented part and leaves other cases to the
// numeric order.
func MaxWW(codes ...Code) Code {
	max := None
	seen := make(map[Code]bool, len(codes))
	for _, c := range codes {
		if !c.Valid() {
			continue
		}
		seen[c] = true
		if c > max {
			max = c
		}
	}

	if max >= 20 && max <= 49 && seen[17] {
		return 17
	}

	if max == 40 && seen[28] {
		for c := Code(29); c <= 39; c++ {
			if seen[c] {
				return 28
			}
		}
	}

	return max
}

// MaxWawa selects the most significant wawa, which is the highest code.
func MaxWawa(codes ...Code) Code {
	max := None
	for _, c := range codes {
		if c.Valid() && c > max {
			max = c
		}
	}
	return max
}
