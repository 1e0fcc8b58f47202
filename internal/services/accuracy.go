package services

// ComputeAccuracy returns the accuracy of a device located distance meters away from a
// base with accuracy baseAccuracy. Pass multiplier 1 on the direct path. Negative and
// non-finite inputs propagate unchanged.
func ComputeAccuracy(baseAccuracy, distance, multiplier float64) float64 {
	return baseAccuracy + distance*multiplier
}
