package analysis

import (
	"math"
	"testing"

	"github.com/asvab-prep/backend/internal/models"
)

func bankItems() []models.Item {
	return []models.Item{
		{ID: "q1", Difficulty: -2.0, Discrimination: 1.0, MainTopicID: "m1", SubTopicID: "s1", Calibrated: true},
		{ID: "q2", Difficulty: -1.0, Discrimination: 1.0, MainTopicID: "m1", SubTopicID: "s1", Calibrated: true},
		{ID: "q3", Difficulty: 0.0, Discrimination: 1.0, MainTopicID: "m1", SubTopicID: "s2", Calibrated: true},
		{ID: "q4", Difficulty: 1.0, Discrimination: 1.0, MainTopicID: "m2", SubTopicID: "s3", Calibrated: true},
		{ID: "q5", Difficulty: 2.0, Discrimination: 1.0, MainTopicID: "m2", SubTopicID: "s3", Calibrated: false},
	}
}

func TestAnalyzeStatistics(t *testing.T) {
	result := Analyze(bankItems())

	if result.TotalQuestions != 5 {
		t.Errorf("TotalQuestions = %d, want 5", result.TotalQuestions)
	}
	if result.Uncalibrated != 1 {
		t.Errorf("Uncalibrated = %d, want 1", result.Uncalibrated)
	}

	diff := result.Statistics.Difficulty
	if diff.Min != -2.0 || diff.Max != 2.0 {
		t.Errorf("difficulty range = [%f, %f], want [-2, 2]", diff.Min, diff.Max)
	}
	if math.Abs(diff.Mean-0.0) > 1e-9 {
		t.Errorf("difficulty mean = %f, want 0", diff.Mean)
	}
	if math.Abs(diff.Median-0.0) > 1e-9 {
		t.Errorf("difficulty median = %f, want 0", diff.Median)
	}
	// Population std of {-2,-1,0,1,2} is sqrt(2).
	if math.Abs(diff.Std-math.Sqrt2) > 1e-9 {
		t.Errorf("difficulty std = %f, want sqrt(2)", diff.Std)
	}

	disc := result.Statistics.Discrimination
	if disc.Min != 1.0 || disc.Max != 1.0 || disc.Mean != 1.0 || disc.Median != 1.0 {
		t.Errorf("discrimination stats = %+v, want all 1.0", disc)
	}
}

func TestAnalyzeDistributions(t *testing.T) {
	result := Analyze(bankItems())

	d := result.Distributions.Difficulty
	// easy [-3,-1): q1. medium [-1,1]: q2,q3,q4. hard (1,3]: q5.
	if d.Easy != 1 || d.Medium != 3 || d.Hard != 1 {
		t.Errorf("difficulty distribution = %+v, want (1, 3, 1)", d)
	}

	topics := result.Distributions.Topics
	if topics.ByMainTopic["m1"] != 3 || topics.ByMainTopic["m2"] != 2 {
		t.Errorf("main topic counts = %v", topics.ByMainTopic)
	}
	if topics.TotalMainTopics != 2 || topics.TotalSubTopics != 3 {
		t.Errorf("topic totals = (%d, %d), want (2, 3)", topics.TotalMainTopics, topics.TotalSubTopics)
	}

	if len(topics.Top5MainTopics) != 2 {
		t.Fatalf("Top5MainTopics len = %d, want 2", len(topics.Top5MainTopics))
	}
	if topics.Top5MainTopics[0].TopicID != "m1" || topics.Top5MainTopics[0].QuestionCount != 3 {
		t.Errorf("top topic = %+v, want m1 with 3", topics.Top5MainTopics[0])
	}
}

func TestAnalyzeEmptyBank(t *testing.T) {
	result := Analyze(nil)

	if result.TotalQuestions != 0 {
		t.Errorf("TotalQuestions = %d, want 0", result.TotalQuestions)
	}
	if result.Statistics.Discrimination.Mean != 1.0 {
		t.Errorf("empty bank discrimination mean = %f, want neutral 1.0", result.Statistics.Discrimination.Mean)
	}
	if result.Distributions.Topics.ByMainTopic == nil {
		t.Error("ByMainTopic should be an empty map, not nil")
	}
}

func TestAnalyzeMissingTopicsBucketAsUnknown(t *testing.T) {
	result := Analyze([]models.Item{{ID: "q1", Difficulty: 0, Discrimination: 1}})
	if result.Distributions.Topics.ByMainTopic["unknown"] != 1 {
		t.Errorf("untagged item counts = %v, want unknown:1", result.Distributions.Topics.ByMainTopic)
	}
}
