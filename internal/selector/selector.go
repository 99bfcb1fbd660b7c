package selector

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/asvab-prep/backend/internal/irt"
	"github.com/asvab-prep/backend/internal/models"
)

// ErrNoCandidates means every candidate question has already been answered.
var ErrNoCandidates = errors.New("no unanswered candidate questions")

// NextQuestion picks the unanswered candidate that contributes the most
// Fisher information at the learner's current ability estimate.
func NextQuestion(candidates []models.Item, answered map[string]bool, theta float64) (models.Item, float64, error) {
	var best models.Item
	bestInfo := -1.0

	for _, q := range candidates {
		if answered[q.ID] {
			continue
		}
		info := irt.Information(theta, q.Discrimination, q.Difficulty, q.Guessing)
		if info > bestInfo {
			bestInfo = info
			best = q
		}
	}

	if bestInfo < 0 {
		return models.Item{}, 0, ErrNoCandidates
	}
	return best, bestInfo, nil
}

// InitialSet assembles a diagnostic starting set: candidates are sorted by
// difficulty, split into up to five bins, and sampled per bin so the set
// spans the difficulty range. Any shortfall is topped up from the
// remaining candidates.
func InitialSet(items []models.Item, numQuestions int, coverageTopics []string, rng *rand.Rand) []models.Item {
	candidates := items
	if len(coverageTopics) > 0 {
		wanted := make(map[string]bool, len(coverageTopics))
		for _, t := range coverageTopics {
			wanted[t] = true
		}
		candidates = nil
		for _, q := range items {
			if wanted[q.MainTopicID] || wanted[q.SubTopicID] {
				candidates = append(candidates, q)
			}
		}
	}

	if numQuestions <= 0 || len(candidates) == 0 {
		return nil
	}

	sorted := make([]models.Item, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Difficulty < sorted[j].Difficulty })

	numBins := numQuestions
	if numBins > 5 {
		numBins = 5
	}
	perBin := numQuestions / numBins

	var selected []models.Item
	picked := make(map[string]bool)

	for i := 0; i < numBins; i++ {
		start := i * len(sorted) / numBins
		end := (i + 1) * len(sorted) / numBins
		bin := sorted[start:end]
		if len(bin) == 0 {
			continue
		}

		take := perBin
		if take > len(bin) {
			take = len(bin)
		}
		for _, idx := range rng.Perm(len(bin))[:take] {
			selected = append(selected, bin[idx])
			picked[bin[idx].ID] = true
		}
	}

	// Top up from whatever was not selected, in difficulty order.
	for _, q := range sorted {
		if len(selected) >= numQuestions {
			break
		}
		if !picked[q.ID] {
			selected = append(selected, q)
			picked[q.ID] = true
		}
	}

	if len(selected) > numQuestions {
		selected = selected[:numQuestions]
	}
	return selected
}

// FromTopicStructure draws questions for one topic of an exam blueprint,
// honoring its per-band counts. Bands follow the standard-normal split:
// easy [-3, -1), medium [-1, 1], hard (1, 3].
func FromTopicStructure(items []models.Item, ts models.ExamTopicStructure, rng *rand.Rand) []models.Item {
	var easy, medium, hard []models.Item

	for _, q := range items {
		topicID := q.SubTopicID
		if ts.TopicType == "main" {
			topicID = q.MainTopicID
		}
		if topicID != ts.TopicID {
			continue
		}

		switch {
		case q.Difficulty >= -3 && q.Difficulty < -1:
			easy = append(easy, q)
		case q.Difficulty >= -1 && q.Difficulty <= 1:
			medium = append(medium, q)
		case q.Difficulty > 1 && q.Difficulty <= 3:
			hard = append(hard, q)
		}
	}

	var selected []models.Item
	selected = append(selected, sample(easy, ts.DifficultyCounts.Easy, rng)...)
	selected = append(selected, sample(medium, ts.DifficultyCounts.Medium, rng)...)
	selected = append(selected, sample(hard, ts.DifficultyCounts.Hard, rng)...)
	return selected
}

func sample(pool []models.Item, count int, rng *rand.Rand) []models.Item {
	if count <= 0 || len(pool) == 0 {
		return nil
	}
	if len(pool) <= count {
		return pool
	}
	out := make([]models.Item, count)
	for i, idx := range rng.Perm(len(pool))[:count] {
		out[i] = pool[idx]
	}
	return out
}
