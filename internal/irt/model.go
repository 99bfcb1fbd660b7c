package irt

// Three-parameter logistic item response model:
//
//	P(θ) = c + (1-c) / (1 + exp(-a*(θ - b)))
//
// θ is learner ability and b item difficulty, both on a standard-normal
// scale; a is discrimination and c the guessing floor.

// Probability returns the chance a learner at ability theta answers an
// item (a, b, c) correctly. The result is clamped to [0, 1].
func Probability(theta, a, b, c float64) float64 {
	p := c + (1-c)*Logistic(a*(theta-b))
	return clamp01(p)
}

// Information returns the Fisher information the item contributes at
// theta:
//
//	I(θ) = a² * (P-c)² * (1-P) / [(1-c)² * P]
//
// An item is most informative when its difficulty sits near the ability
// being measured. Zero is returned outside the open interval (c, 1) where
// the response carries no information.
func Information(theta, a, b, c float64) float64 {
	p := Probability(theta, a, b, c)
	if p <= c || p >= 1.0 {
		return 0.0
	}

	num := a * a * (p - c) * (p - c) * (1 - p)
	den := (1 - c) * (1 - c) * p
	if den <= 0 {
		return 0.0
	}

	info := num / den
	if info < 0 {
		return 0.0
	}
	return info
}
