package analysis

import (
	"sort"

	"github.com/asvab-prep/backend/internal/models"
	"github.com/montanaflynn/stats"
)

// Analyze summarizes a calibrated bank: difficulty and discrimination
// statistics, the easy/medium/hard split, and topic coverage.
func Analyze(items []models.Item) models.BankAnalysis {
	var result models.BankAnalysis
	result.TotalQuestions = len(items)
	result.Distributions.Topics.ByMainTopic = map[string]int{}
	result.Distributions.Topics.BySubTopic = map[string]int{}
	result.Distributions.Topics.Top5MainTopics = []models.TopicCount{}

	if len(items) == 0 {
		result.Statistics.Discrimination = models.DiscriminationStatistics{Min: 1, Max: 1, Mean: 1, Median: 1}
		return result
	}

	difficulties := make([]float64, len(items))
	discriminations := make([]float64, len(items))

	for i, q := range items {
		difficulties[i] = q.Difficulty
		discriminations[i] = q.Discrimination

		if !q.Calibrated {
			result.Uncalibrated++
		}

		switch {
		case q.Difficulty >= -3 && q.Difficulty < -1:
			result.Distributions.Difficulty.Easy++
		case q.Difficulty >= -1 && q.Difficulty <= 1:
			result.Distributions.Difficulty.Medium++
		case q.Difficulty > 1 && q.Difficulty <= 3:
			result.Distributions.Difficulty.Hard++
		}

		mainID := q.MainTopicID
		if mainID == "" {
			mainID = "unknown"
		}
		result.Distributions.Topics.ByMainTopic[mainID]++

		subID := q.SubTopicID
		if subID == "" {
			subID = "unknown"
		}
		result.Distributions.Topics.BySubTopic[subID]++
	}

	result.Statistics.Difficulty = models.DifficultyStatistics{
		Min:    must(stats.Min(difficulties)),
		Max:    must(stats.Max(difficulties)),
		Mean:   must(stats.Mean(difficulties)),
		Median: must(stats.Median(difficulties)),
		Std:    must(stats.StdDevP(difficulties)),
	}
	result.Statistics.Discrimination = models.DiscriminationStatistics{
		Min:    must(stats.Min(discriminations)),
		Max:    must(stats.Max(discriminations)),
		Mean:   must(stats.Mean(discriminations)),
		Median: must(stats.Median(discriminations)),
	}

	result.Distributions.Topics.TotalMainTopics = len(result.Distributions.Topics.ByMainTopic)
	result.Distributions.Topics.TotalSubTopics = len(result.Distributions.Topics.BySubTopic)
	result.Distributions.Topics.Top5MainTopics = topTopics(result.Distributions.Topics.ByMainTopic, 5)

	return result
}

// topTopics ranks topics by question count, ties broken by topic ID for a
// deterministic response.
func topTopics(counts map[string]int, n int) []models.TopicCount {
	ranked := make([]models.TopicCount, 0, len(counts))
	for id, count := range counts {
		ranked = append(ranked, models.TopicCount{TopicID: id, QuestionCount: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].QuestionCount != ranked[j].QuestionCount {
			return ranked[i].QuestionCount > ranked[j].QuestionCount
		}
		return ranked[i].TopicID < ranked[j].TopicID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func must(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	return v
}
