package irt

import (
	"math"

	"github.com/asvab-prep/backend/internal/models"
)

// Engine turns an ability estimate and an exam composition into a pass
// probability. Exams at or under ExactDPThreshold questions get the exact
// Poisson-binomial tail; larger exams use a normal approximation with
// continuity correction.
type Engine struct {
	ExactDPThreshold int
}

func NewEngine() *Engine {
	return &Engine{ExactDPThreshold: 30}
}

// PassingResult carries the predicted outcome distribution summary.
// PassProbability and ExpectedScore are percentages in [0, 100]; Probs
// holds the per-item probabilities in [0, 1].
type PassingResult struct {
	PassProbability float64
	ExpectedScore   float64
	ExpectedCorrect float64
	MinCorrect      int
	Probs           []float64
}

// PassingProbability computes per-item correctness probabilities for a
// learner at theta and evaluates the chance of clearing the threshold.
func (en *Engine) PassingProbability(theta float64, items []models.Item, threshold float64) (PassingResult, error) {
	probs := make([]float64, len(items))
	for i, it := range items {
		probs[i] = Probability(theta, it.Discrimination, it.Difficulty, it.Guessing)
	}
	return en.FromProbabilities(probs, threshold)
}

// FromProbabilities evaluates the pass chance given per-item probabilities
// already computed by the caller (for example with per-topic abilities).
func (en *Engine) FromProbabilities(probs []float64, threshold float64) (PassingResult, error) {
	n := len(probs)
	if n == 0 {
		return PassingResult{}, ErrEmptyExam
	}
	if threshold <= 0 || threshold > 1 {
		return PassingResult{}, ErrInvalidThreshold
	}

	minCorrect := int(math.Ceil(threshold * float64(n)))

	var expected float64
	for _, p := range probs {
		expected += p
	}

	var passProb float64
	if n <= en.ExactDPThreshold {
		pmf := PoissonBinomialPMF(probs)
		for k := minCorrect; k <= n; k++ {
			passProb += pmf[k]
		}
	} else {
		passProb = normalTail(probs, expected, minCorrect)
	}

	return PassingResult{
		PassProbability: clamp(passProb*100.0, 0.0, 100.0),
		ExpectedScore:   clamp(expected/float64(n)*100.0, 0.0, 100.0),
		ExpectedCorrect: expected,
		MinCorrect:      minCorrect,
		Probs:           probs,
	}, nil
}

// PoissonBinomialPMF computes the distribution of the number of successes
// over independent Bernoulli trials with heterogeneous probabilities, by
// the standard one-dimensional DP:
//
//	f'[k] = f[k]*(1-p) + f[k-1]*p
//
// Plain doubles do not underflow at the exam sizes the exact path serves.
func PoissonBinomialPMF(probs []float64) []float64 {
	f := make([]float64, len(probs)+1)
	f[0] = 1.0

	for m, p := range probs {
		for k := m + 1; k >= 1; k-- {
			f[k] = f[k]*(1-p) + f[k-1]*p
		}
		f[0] *= 1 - p
	}
	return f
}

// normalTail approximates Pr[X >= minCorrect] with a continuity-corrected
// normal. A degenerate exam (every p 0 or 1) collapses to a point mass.
func normalTail(probs []float64, mean float64, minCorrect int) float64 {
	var variance float64
	for _, p := range probs {
		variance += p * (1 - p)
	}

	if variance == 0 {
		if mean >= float64(minCorrect) {
			return 1.0
		}
		return 0.0
	}

	z := (float64(minCorrect) - 0.5 - mean) / math.Sqrt(variance)
	return 1.0 - NormalCDF(z)
}

// AggregateConfidence folds the ability confidence, the exam size, and the
// spread of per-item probabilities into one score in [0, 1]. Larger exams
// and tighter probability spreads are trusted more. The weights are fixed.
func AggregateConfidence(abilityConf float64, probs []float64) float64 {
	n := len(probs)
	if n == 0 {
		return clamp01(0.5 * abilityConf)
	}

	numConf := math.Min(1.0, float64(n)/50.0)

	var mean float64
	for _, p := range probs {
		mean += p
	}
	mean /= float64(n)

	var variance float64
	for _, p := range probs {
		d := p - mean
		variance += d * d
	}
	variance /= float64(n)

	varianceConf := 1.0 - math.Min(1.0, variance*4.0)

	return clamp01(0.5*abilityConf + 0.3*numConf + 0.2*varianceConf)
}
