package utils

import "math"

// NormalizeL2 returns a copy of x scaled to unit L2 norm.
// If the norm is zero, a copy of x is returned unchanged.
func NormalizeL2(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	var sum float64
	for _, v := range out {
		sum += v * v
	}
	if sum == 0 {
		return out
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range out {
		out[i] *= norm
	}
	return out
}

// Cosine returns the cosine similarity between a and b, in [-1, 1].
// Returns 0 when either vector is zero or lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}
