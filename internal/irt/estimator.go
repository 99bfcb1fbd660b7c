package irt

import (
	"fmt"
	"math"

	"github.com/asvab-prep/backend/internal/models"
)

const (
	// epsInfo floors the information term so the Newton step and the
	// standard error stay defined on flat likelihoods.
	epsInfo = 1e-6
	// probEps keeps per-item probabilities away from the log singularities
	// at c and 1.
	probEps = 1e-9
)

// ItemSource resolves question IDs against a calibrated item bank.
type ItemSource interface {
	Item(id string) (models.Item, bool)
}

// Estimator fits learner ability by maximum likelihood over the 3PL model
// using Newton-Raphson iteration. The zero value is not usable; construct
// with NewEstimator.
type Estimator struct {
	MaxIter int
	Tol     float64
	Clip    float64
}

func NewEstimator() *Estimator {
	return &Estimator{
		MaxIter: 10,
		Tol:     1e-3,
		Clip:    3.0,
	}
}

type scoredItem struct {
	a, b, c float64
	u       float64
}

// Estimate fits ability for one learner from their response history. Every
// referenced question must be in the bank. Duplicate (learner, item)
// responses each contribute independently to the likelihood.
func (e *Estimator) Estimate(responses []models.Response, bank ItemSource) (models.AbilityEstimate, error) {
	if len(responses) == 0 {
		return models.AbilityEstimate{}, ErrNoResponses
	}

	pairs := make([]scoredItem, len(responses))
	for i, r := range responses {
		item, ok := bank.Item(r.QuestionID)
		if !ok {
			return models.AbilityEstimate{}, fmt.Errorf("%w: %s", ErrUnknownItem, r.QuestionID)
		}
		u := 0.0
		if r.Correct {
			u = 1.0
		}
		pairs[i] = scoredItem{a: item.Discrimination, b: item.Difficulty, c: item.Guessing, u: u}
	}

	theta, err := e.newton(pairs)
	if err != nil {
		return models.AbilityEstimate{}, err
	}

	_, info := e.scoreInfo(theta, pairs)
	se := 1.0 / math.Sqrt(math.Max(info, epsInfo))
	return models.AbilityEstimate{
		Theta:        theta,
		StandardErr:  se,
		Confidence:   1.0 / (1.0 + se),
		NumResponses: len(responses),
	}, nil
}

// newton runs the capped Newton-Raphson iteration. A non-finite
// intermediate restarts the fit from zero once; a second failure is
// surfaced as ErrNumericInstability.
func (e *Estimator) newton(pairs []scoredItem) (float64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		theta := 0.0
		finite := true

		for iter := 0; iter < e.MaxIter; iter++ {
			score, info := e.scoreInfo(theta, pairs)
			if math.IsNaN(score) || math.IsInf(score, 0) || math.IsNaN(info) || math.IsInf(info, 0) {
				finite = false
				break
			}

			next := clamp(theta+score/math.Max(info, epsInfo), -e.Clip, e.Clip)
			delta := next - theta
			theta = next

			if math.Abs(delta) < e.Tol {
				break
			}
		}

		if finite && !math.IsNaN(theta) {
			return theta, nil
		}
	}
	return 0, ErrNumericInstability
}

// scoreInfo evaluates the likelihood derivative and Fisher information at
// theta, with each item probability nudged inside [c+eps, 1-eps].
func (e *Estimator) scoreInfo(theta float64, pairs []scoredItem) (float64, float64) {
	var score, info float64
	for _, it := range pairs {
		p := Probability(theta, it.a, it.b, it.c)
		p = clamp(p, it.c+probEps, 1.0-probEps)

		weight := (p - it.c) / (p * (1 - it.c))
		score += it.a * (it.u - p) * weight
		info += it.a * it.a * (p - it.c) * (p - it.c) * (1 - p) / ((1 - it.c) * (1 - it.c) * p)
	}
	return score, info
}

// LogLikelihood evaluates the 3PL log-likelihood at theta; the estimator
// maximizes this quantity. Exposed for diagnostics.
func (e *Estimator) LogLikelihood(theta float64, responses []models.Response, bank ItemSource) (float64, error) {
	var ll float64
	for _, r := range responses {
		item, ok := bank.Item(r.QuestionID)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownItem, r.QuestionID)
		}
		p := Probability(theta, item.Discrimination, item.Difficulty, item.Guessing)
		p = clamp(p, item.Guessing+probEps, 1.0-probEps)
		if r.Correct {
			ll += math.Log(p)
		} else {
			ll += math.Log(1 - p)
		}
	}
	return ll, nil
}
