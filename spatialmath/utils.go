package spatialmath

import "math"

const floatEpsilon = 1e-8

// Float64AlmostEqual reports whether two floats are within epsilon of each other.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
