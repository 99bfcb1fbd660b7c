package calibration

import (
	"log"

	"github.com/asvab-prep/backend/internal/models"
)

// Calibrator derives item difficulty from aggregate response statistics.
// Accuracy carries most of the signal; mean response time relative to the
// corpus adds the rest. Output difficulties live on the standard-normal
// scale shared with ability estimates.
type Calibrator struct {
	AccuracyWeight        float64
	TimeWeight            float64
	DefaultDiscrimination float64
	DefaultGuessing       float64
}

func NewCalibrator() *Calibrator {
	return &Calibrator{
		AccuracyWeight:        0.6,
		TimeWeight:            0.4,
		DefaultDiscrimination: 1.0,
		DefaultGuessing:       0.25,
	}
}

// Result is the output of one calibration run.
type Result struct {
	Items          []models.Item
	DroppedRecords int
	GlobalMeanTime float64
}

type itemAgg struct {
	attempts  int
	correct   int
	timeSum   float64
	timedN    int
	mainTopic string
	subTopic  string
}

// Calibrate builds the item bank from the full response history and the
// item-topic map. Items named by the topic map but never attempted get a
// neutral difficulty of 0 and are flagged uncalibrated. Malformed records
// are dropped and counted, never fatal.
func (c *Calibrator) Calibrate(responses []models.Response, topics map[string]models.TopicInfo) Result {
	aggs := make(map[string]*itemAgg)
	for id, t := range topics {
		aggs[id] = &itemAgg{mainTopic: t.MainTopicID, subTopic: t.SubTopicID}
	}

	dropped := 0
	var globalTimeSum float64
	var globalTimedN int

	for _, r := range responses {
		if r.QuestionID == "" || r.ResponseTime < 0 {
			dropped++
			continue
		}

		agg, ok := aggs[r.QuestionID]
		if !ok {
			agg = &itemAgg{}
			aggs[r.QuestionID] = agg
		}

		agg.attempts++
		if r.Correct {
			agg.correct++
		}
		if r.ResponseTime > 0 {
			agg.timeSum += r.ResponseTime
			agg.timedN++
			globalTimeSum += r.ResponseTime
			globalTimedN++
		}
	}

	globalMean := 0.0
	if globalTimedN > 0 {
		globalMean = globalTimeSum / float64(globalTimedN)
	}

	items := make([]models.Item, 0, len(aggs))
	for id, agg := range aggs {
		item := models.Item{
			ID:             id,
			Discrimination: c.DefaultDiscrimination,
			Guessing:       c.DefaultGuessing,
			MainTopicID:    agg.mainTopic,
			SubTopicID:     agg.subTopic,
			AttemptCount:   agg.attempts,
			CorrectCount:   agg.correct,
		}

		if agg.timedN > 0 {
			item.MeanResponseTime = agg.timeSum / float64(agg.timedN)
		}

		if agg.attempts == 0 {
			item.Difficulty = 0.0
			item.Calibrated = false
		} else {
			item.Difficulty = c.difficulty(agg, globalMean)
			item.Calibrated = true
		}

		items = append(items, item)
	}

	if dropped > 0 {
		log.Printf("WARN: calibration dropped %d malformed response records", dropped)
	}

	return Result{Items: items, DroppedRecords: dropped, GlobalMeanTime: globalMean}
}

// difficulty combines the accuracy and time signals for one attempted item.
func (c *Calibrator) difficulty(agg *itemAgg, globalMeanTime float64) float64 {
	accuracy := float64(agg.correct) / float64(agg.attempts)
	dAcc := 1.0 - accuracy

	// Relative time ratio: 1 when the item takes average time, or when the
	// corpus carries no timing signal at all.
	ratio := 1.0
	if globalMeanTime > 0 && agg.timedN > 0 {
		ratio = (agg.timeSum / float64(agg.timedN)) / globalMeanTime
	}

	// Centered at 0.5 for an average-time item, slope 0.25 in the ratio.
	// Extreme ratios can push this outside [0, 1]; the combined d01 clamp
	// below absorbs that.
	dTime := 0.5 * (1.0 + (ratio-1.0)*0.5)

	d01 := c.AccuracyWeight*dAcc + c.TimeWeight*dTime
	if d01 < 0.0 {
		d01 = 0.0
	}
	if d01 > 1.0 {
		d01 = 1.0
	}

	return ToStandardNormal(d01)
}
