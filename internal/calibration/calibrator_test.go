package calibration

import (
	"math"
	"testing"

	"github.com/asvab-prep/backend/internal/models"
)

func responses(questionID string, correct int, total int, responseTime float64) []models.Response {
	out := make([]models.Response, total)
	for i := range out {
		out[i] = models.Response{
			UserID:       "u1",
			QuestionID:   questionID,
			Correct:      i < correct,
			ResponseTime: responseTime,
		}
	}
	return out
}

func findItem(t *testing.T, items []models.Item, id string) models.Item {
	t.Helper()
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s not found in calibration result", id)
	return models.Item{}
}

func TestCalibrateAccuracyAndTime(t *testing.T) {
	// 7 of 10 correct at exactly the corpus mean time:
	// d_acc = 0.3, d_time = 0.5, d01 = 0.6*0.3 + 0.4*0.5 = 0.38,
	// b = (0.38 - 0.5) * 6 = -0.72.
	result := NewCalibrator().Calibrate(responses("q1", 7, 10, 30.0), nil)

	item := findItem(t, result.Items, "q1")
	if math.Abs(item.Difficulty-(-0.72)) > 1e-9 {
		t.Errorf("difficulty = %f, want -0.72", item.Difficulty)
	}
	if !item.Calibrated {
		t.Error("item with attempts should be flagged calibrated")
	}
	if item.AttemptCount != 10 || item.CorrectCount != 7 {
		t.Errorf("stats = (%d, %d), want (10, 7)", item.AttemptCount, item.CorrectCount)
	}
	if item.Discrimination != 1.0 || item.Guessing != 0.25 {
		t.Errorf("defaults = (a=%f, c=%f), want (1.0, 0.25)", item.Discrimination, item.Guessing)
	}
}

func TestCalibrateMonotoneInAccuracy(t *testing.T) {
	// At fixed response time, more misses can never make an item easier.
	prev := math.Inf(-1)
	for correct := 10; correct >= 0; correct-- {
		result := NewCalibrator().Calibrate(responses("q1", correct, 10, 30.0), nil)
		b := findItem(t, result.Items, "q1").Difficulty
		if b < prev {
			t.Errorf("difficulty decreased as accuracy dropped: correct=%d b=%f prev=%f", correct, b, prev)
		}
		prev = b
	}
}

func TestCalibrateTimeSignal(t *testing.T) {
	// Two items with the same accuracy; the slower one must come out
	// harder. Corpus mean time is (60+60+20+20)/4 = 40.
	var all []models.Response
	all = append(all, responses("slow", 1, 2, 60.0)...)
	all = append(all, responses("fast", 1, 2, 20.0)...)

	result := NewCalibrator().Calibrate(all, nil)

	slow := findItem(t, result.Items, "slow")
	fast := findItem(t, result.Items, "fast")

	// slow: r=1.5, d_time=0.625, d01=0.55, b=0.3
	// fast: r=0.5, d_time=0.375, d01=0.45, b=-0.3
	if math.Abs(slow.Difficulty-0.3) > 1e-9 {
		t.Errorf("slow difficulty = %f, want 0.3", slow.Difficulty)
	}
	if math.Abs(fast.Difficulty-(-0.3)) > 1e-9 {
		t.Errorf("fast difficulty = %f, want -0.3", fast.Difficulty)
	}
}

func TestCalibrateNoAttempts(t *testing.T) {
	topics := map[string]models.TopicInfo{
		"unattempted": {MainTopicID: "m1", SubTopicID: "s1"},
	}

	result := NewCalibrator().Calibrate(nil, topics)

	item := findItem(t, result.Items, "unattempted")
	if item.Difficulty != 0 {
		t.Errorf("unattempted difficulty = %f, want 0", item.Difficulty)
	}
	if item.Calibrated {
		t.Error("unattempted item should be flagged uncalibrated")
	}
	if item.MainTopicID != "m1" || item.SubTopicID != "s1" {
		t.Errorf("topics = (%s, %s), want (m1, s1)", item.MainTopicID, item.SubTopicID)
	}
}

func TestCalibrateNoTimingSignal(t *testing.T) {
	// All-zero response times disable the time factor: d_time = 0.5.
	// With 5/10 correct, d01 = 0.6*0.5 + 0.4*0.5 = 0.5 -> b = 0.
	result := NewCalibrator().Calibrate(responses("q1", 5, 10, 0.0), nil)

	item := findItem(t, result.Items, "q1")
	if math.Abs(item.Difficulty) > 1e-9 {
		t.Errorf("difficulty = %f, want 0 with no timing signal", item.Difficulty)
	}
	if result.GlobalMeanTime != 0 {
		t.Errorf("GlobalMeanTime = %f, want 0", result.GlobalMeanTime)
	}
}

func TestCalibrateClampsExtremes(t *testing.T) {
	// An item nobody answers correctly, far slower than the corpus, pins
	// at +3; an always-correct instant item pins near the easy end.
	var all []models.Response
	all = append(all, responses("brutal", 0, 4, 300.0)...)
	all = append(all, responses("trivial", 20, 20, 5.0)...)

	result := NewCalibrator().Calibrate(all, nil)

	brutal := findItem(t, result.Items, "brutal")
	if brutal.Difficulty != 3.0 {
		t.Errorf("brutal difficulty = %f, want clamped 3.0", brutal.Difficulty)
	}

	trivial := findItem(t, result.Items, "trivial")
	if trivial.Difficulty < -3.0 || trivial.Difficulty > -2.0 {
		t.Errorf("trivial difficulty = %f, want well below -2", trivial.Difficulty)
	}
}

func TestCalibrateDropsMalformed(t *testing.T) {
	all := []models.Response{
		{UserID: "u1", QuestionID: "q1", Correct: true, ResponseTime: 30},
		{UserID: "u1", QuestionID: "", Correct: true, ResponseTime: 30},
		{UserID: "u1", QuestionID: "q1", Correct: false, ResponseTime: -5},
	}

	result := NewCalibrator().Calibrate(all, nil)

	if result.DroppedRecords != 2 {
		t.Errorf("DroppedRecords = %d, want 2", result.DroppedRecords)
	}
	item := findItem(t, result.Items, "q1")
	if item.AttemptCount != 1 {
		t.Errorf("AttemptCount = %d, want 1 (malformed rows excluded)", item.AttemptCount)
	}
}

func TestCalibrateDifficultyAlwaysInRange(t *testing.T) {
	cases := []struct {
		correct, total int
		time           float64
	}{
		{0, 1, 1000}, {1, 1, 0.1}, {3, 7, 45}, {10, 10, 80}, {0, 10, 2},
	}
	for _, c := range cases {
		result := NewCalibrator().Calibrate(responses("q1", c.correct, c.total, c.time), nil)
		b := findItem(t, result.Items, "q1").Difficulty
		if b < -3 || b > 3 {
			t.Errorf("Calibrate(%d/%d, t=%.1f) difficulty = %f outside [-3, 3]", c.correct, c.total, c.time, b)
		}
	}
}

func TestScaleConversionRoundTrip(t *testing.T) {
	tests := []struct {
		d01  float64
		want float64
	}{
		{0.0, -3.0},
		{0.38, -0.72},
		{0.5, 0.0},
		{1.0, 3.0},
	}
	for _, tt := range tests {
		got := ToStandardNormal(tt.d01)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ToStandardNormal(%f) = %f, want %f", tt.d01, got, tt.want)
		}
		back := FromStandardNormal(got)
		if math.Abs(back-tt.d01) > 1e-9 {
			t.Errorf("FromStandardNormal(%f) = %f, want %f", got, back, tt.d01)
		}
	}
}
