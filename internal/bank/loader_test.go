package bank

import (
	"math"
	"strings"
	"testing"
)

func TestParseResponseHistory(t *testing.T) {
	data := `[
		{
			"userId": 4515379877511168,
			"questionId": "q1",
			"choicesSelected": [2],
			"playedTimes": "[{\"startTime\":1000,\"endTime\":31000}]",
			"histories": [0, 1],
			"lastUpdate": 1700000000
		},
		{
			"userId": "user-2",
			"questionId": "q2",
			"choicesSelected": [],
			"playedTimes": "",
			"histories": [1, 0],
			"lastUpdate": 1700000001
		},
		{
			"userId": "",
			"questionId": "q3",
			"histories": [1]
		}
	]`

	result, err := ParseResponseHistory([]byte(data))
	if err != nil {
		t.Fatalf("ParseResponseHistory returned error: %v", err)
	}

	if len(result.Responses) != 2 {
		t.Fatalf("parsed %d responses, want 2", len(result.Responses))
	}
	if result.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", result.Dropped)
	}

	first := result.Responses[0]
	if first.UserID != "4515379877511168" {
		t.Errorf("numeric userId parsed as %q", first.UserID)
	}
	if !first.Correct {
		t.Error("histories ending in 1 should be correct")
	}
	if math.Abs(first.ResponseTime-30.0) > 1e-9 {
		t.Errorf("ResponseTime = %f, want 30 from the play window", first.ResponseTime)
	}
	if first.ChoiceIndex != 2 {
		t.Errorf("ChoiceIndex = %d, want 2", first.ChoiceIndex)
	}

	second := result.Responses[1]
	if second.Correct {
		t.Error("histories ending in 0 should be incorrect")
	}
	if second.ResponseTime != defaultResponseTime {
		t.Errorf("missing playedTimes: ResponseTime = %f, want default %f", second.ResponseTime, defaultResponseTime)
	}
	if second.ChoiceIndex != -1 {
		t.Errorf("empty choicesSelected: ChoiceIndex = %d, want -1", second.ChoiceIndex)
	}

	if got := len(result.ByUser["4515379877511168"]); got != 1 {
		t.Errorf("ByUser grouping = %d responses, want 1", got)
	}
}

func TestParseResponseHistoryLastWindowWins(t *testing.T) {
	data := `[{
		"userId": "u1",
		"questionId": "q1",
		"playedTimes": "[{\"startTime\":0,\"endTime\":5000},{\"startTime\":10000,\"endTime\":22000}]",
		"histories": [1]
	}]`

	result, err := ParseResponseHistory([]byte(data))
	if err != nil {
		t.Fatalf("ParseResponseHistory returned error: %v", err)
	}
	if got := result.Responses[0].ResponseTime; math.Abs(got-12.0) > 1e-9 {
		t.Errorf("ResponseTime = %f, want 12 from the last window", got)
	}
}

func TestParseResponseHistoryInvalidWindow(t *testing.T) {
	// endTime before startTime falls back to the default.
	data := `[{
		"userId": "u1",
		"questionId": "q1",
		"playedTimes": "[{\"startTime\":9000,\"endTime\":1000}]",
		"histories": [1]
	}]`

	result, err := ParseResponseHistory([]byte(data))
	if err != nil {
		t.Fatalf("ParseResponseHistory returned error: %v", err)
	}
	if got := result.Responses[0].ResponseTime; got != defaultResponseTime {
		t.Errorf("ResponseTime = %f, want default %f", got, defaultResponseTime)
	}
}

func TestParseTopicCSVPlain(t *testing.T) {
	csvData := `question_id,main_topic_id,main_topic_name,sub_topic_id,sub_topic_name
q1,m1,Arithmetic,s1,Fractions
q2,m2,Mechanics,,
`
	topics, err := ParseTopicCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseTopicCSV returned error: %v", err)
	}

	if len(topics) != 2 {
		t.Fatalf("parsed %d topics, want 2", len(topics))
	}
	if topics["q1"].MainTopicID != "m1" || topics["q1"].SubTopicID != "s1" {
		t.Errorf("q1 topics = %+v", topics["q1"])
	}
	if topics["q2"].SubTopicID != "" {
		t.Errorf("q2 sub topic = %q, want empty", topics["q2"].SubTopicID)
	}
}

func TestParseTopicCSVPipePacked(t *testing.T) {
	csvData := `question_id|main_topic_id|sub_topic_id
q1|m1|s1
q2|m2|s2
badrow|only-two-fields
`
	topics, err := ParseTopicCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseTopicCSV returned error: %v", err)
	}

	if len(topics) != 2 {
		t.Fatalf("parsed %d topics, want 2 (short row skipped)", len(topics))
	}
	if topics["q2"].MainTopicID != "m2" || topics["q2"].SubTopicID != "s2" {
		t.Errorf("q2 topics = %+v", topics["q2"])
	}
}

func TestParseTopicCSVMissingColumn(t *testing.T) {
	csvData := "id,main_topic_id\nq1,m1\n"
	if _, err := ParseTopicCSV(strings.NewReader(csvData)); err == nil {
		t.Error("expected error for missing question_id column")
	}
}
