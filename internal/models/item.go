package models

// Item is a calibrated question in the item bank. Difficulty and ability
// share the same standard-normal scale, clamped to [-3, +3].
type Item struct {
	ID             string  `json:"question_id"`
	Difficulty     float64 `json:"difficulty"`
	Discrimination float64 `json:"discrimination"`
	Guessing       float64 `json:"guessing"`
	MainTopicID    string  `json:"main_topic_id"`
	SubTopicID     string  `json:"sub_topic_id"`
	Calibrated     bool    `json:"calibrated"`

	// Aggregate stats the calibrator derived the parameters from.
	AttemptCount     int     `json:"attempt_count"`
	CorrectCount     int     `json:"correct_count"`
	MeanResponseTime float64 `json:"mean_response_time"`
}

// Response is a single answer record: one learner, one item, one outcome.
// Duplicate (learner, item) pairs are allowed and each contributes
// independently to the likelihood.
type Response struct {
	UserID       string  `json:"user_id"`
	QuestionID   string  `json:"question_id"`
	Correct      bool    `json:"correct"`
	ResponseTime float64 `json:"response_time"`
	Timestamp    int64   `json:"timestamp"`
	ChoiceIndex  int     `json:"choice_index"`
}

// TopicInfo maps an item to its main topic and optional sub topic.
type TopicInfo struct {
	MainTopicID string `json:"main_topic_id"`
	SubTopicID  string `json:"sub_topic_id"`
}

// ExamItem is one question in a prospective exam. Difficulty may be nil,
// in which case the calibrated bank value is used.
type ExamItem struct {
	QuestionID     string   `json:"question_id"`
	Difficulty     *float64 `json:"difficulty,omitempty"`
	Discrimination float64  `json:"discrimination"`
}

// ExamStructure describes a prospective exam: either an explicit question
// list or a topic composition, plus the passing threshold as a fraction.
type ExamStructure struct {
	Questions        []ExamItem           `json:"questions,omitempty"`
	Topics           []ExamTopicStructure `json:"topics,omitempty"`
	PassingThreshold float64              `json:"passing_threshold"`
}

// ExamTopicStructure requests questions drawn from one topic, split by
// difficulty band.
type ExamTopicStructure struct {
	TopicID          string           `json:"topic_id"`
	TopicType        string           `json:"topic_type"` // "main" or "sub"
	DifficultyCounts DifficultyCounts `json:"difficulty_counts"`
}

type DifficultyCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}
