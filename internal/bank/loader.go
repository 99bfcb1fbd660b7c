package bank

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/asvab-prep/backend/internal/models"
)

// defaultResponseTime substitutes for responses with missing or invalid
// timing data, in seconds.
const defaultResponseTime = 30.0

// LoadResult is the parsed response history.
type LoadResult struct {
	Responses []models.Response
	ByUser    map[string][]models.Response
	Dropped   int
}

// LoadResponseHistory reads the aggregated progress file. Each record
// carries a learner ID, a question ID, an answer history (last entry 1
// means the latest attempt was correct), play-time windows, and the
// selected choice. Records without both IDs are dropped and counted.
func LoadResponseHistory(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read response history: %w", err)
	}

	result, err := ParseResponseHistory(data)
	if err != nil {
		return nil, fmt.Errorf("parse response history %s: %w", path, err)
	}

	if result.Dropped > 0 {
		log.Printf("WARN: response history: dropped %d malformed records", result.Dropped)
	}
	log.Printf("Loaded %d responses for %d learners from %s",
		len(result.Responses), len(result.ByUser), path)

	return result, nil
}

// ParseResponseHistory decodes progress records from raw JSON.
func ParseResponseHistory(data []byte) (*LoadResult, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows []map[string]interface{}
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}

	result := &LoadResult{ByUser: make(map[string][]models.Response)}

	for _, row := range rows {
		userID := asString(row["userId"])
		questionID := asString(row["questionId"])
		if userID == "" || questionID == "" {
			result.Dropped++
			continue
		}

		resp := models.Response{
			UserID:       userID,
			QuestionID:   questionID,
			Correct:      lastHistoryCorrect(row["histories"]),
			ResponseTime: lastPlayedTime(row["playedTimes"]),
			Timestamp:    asInt64(row["lastUpdate"]),
			ChoiceIndex:  firstChoice(row["choicesSelected"]),
		}

		result.Responses = append(result.Responses, resp)
		result.ByUser[userID] = append(result.ByUser[userID], resp)
	}

	return result, nil
}

// lastHistoryCorrect reports whether the latest attempt in the histories
// array was correct. Missing or empty histories count as incorrect.
func lastHistoryCorrect(v interface{}) bool {
	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return false
	}
	return asInt64(arr[len(arr)-1]) == 1
}

// lastPlayedTime extracts the duration of the most recent play window in
// seconds. playedTimes arrives as a JSON string of {startTime, endTime}
// millisecond pairs; an embedded array is accepted too.
func lastPlayedTime(v interface{}) float64 {
	var windows []map[string]interface{}

	switch t := v.(type) {
	case string:
		if t == "" {
			return defaultResponseTime
		}
		dec := json.NewDecoder(strings.NewReader(t))
		dec.UseNumber()
		if err := dec.Decode(&windows); err != nil {
			return defaultResponseTime
		}
	case []interface{}:
		for _, w := range t {
			if m, ok := w.(map[string]interface{}); ok {
				windows = append(windows, m)
			}
		}
	default:
		return defaultResponseTime
	}

	if len(windows) == 0 {
		return defaultResponseTime
	}

	last := windows[len(windows)-1]
	start := asFloat(last["startTime"])
	end := asFloat(last["endTime"])
	if end <= start {
		return defaultResponseTime
	}
	return (end - start) / 1000.0
}

func firstChoice(v interface{}) int {
	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return -1
	}
	return int(asInt64(arr[0]))
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return n
	case string:
		var n json.Number = json.Number(t)
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// LoadTopicMap reads the item-to-topic CSV. Each item has exactly one
// main topic and optionally one sub topic.
func LoadTopicMap(path string) (map[string]models.TopicInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topic map: %w", err)
	}
	defer f.Close()

	topics, err := ParseTopicCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse topic map %s: %w", path, err)
	}

	log.Printf("Loaded topic mapping for %d items from %s", len(topics), path)
	return topics, nil
}

// ParseTopicCSV handles both a regular comma-separated header and the
// pipe-packed export variant where every row is a single '|'-joined field.
func ParseTopicCSV(r io.Reader) (map[string]models.TopicInfo, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[string]models.TopicInfo{}, nil
	}

	header := records[0]
	rows := records[1:]

	// Pipe-packed export: the whole header lives in the first column.
	if len(header) == 1 && strings.Contains(header[0], "|") {
		columns := strings.Split(header[0], "|")
		unpacked := make([][]string, 0, len(rows))
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			values := strings.Split(row[0], "|")
			if len(values) != len(columns) {
				continue
			}
			unpacked = append(unpacked, values)
		}
		header = columns
		rows = unpacked
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	qIdx, ok := col["question_id"]
	if !ok {
		return nil, fmt.Errorf("topic map missing question_id column")
	}
	mainIdx, hasMain := col["main_topic_id"]
	subIdx, hasSub := col["sub_topic_id"]

	topics := make(map[string]models.TopicInfo)
	for _, row := range rows {
		if qIdx >= len(row) {
			continue
		}
		questionID := strings.TrimSpace(row[qIdx])
		if questionID == "" {
			continue
		}

		info := models.TopicInfo{}
		if hasMain && mainIdx < len(row) {
			info.MainTopicID = strings.TrimSpace(row[mainIdx])
		}
		if hasSub && subIdx < len(row) {
			info.SubTopicID = strings.TrimSpace(row[subIdx])
		}
		topics[questionID] = info
	}

	return topics, nil
}
