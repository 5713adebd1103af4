package mathx

// FloorDiv rounds toward negative infinity, so FloorDiv(-1, 32) == -1.
func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StepToward returns the unit step from 0 toward v. A zero offset still
// steps +1 so loops bounded by |v| visit exactly one value.
func StepToward(v int) int {
	if s := Clamp(v, -1, 1); s != 0 {
		return s
	}
	return 1
}
