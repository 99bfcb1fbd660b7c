package models

// AbilityEstimate is the result of one maximum-likelihood ability fit.
type AbilityEstimate struct {
	Theta        float64 `json:"ability"`
	StandardErr  float64 `json:"standard_error"`
	Confidence   float64 `json:"confidence"`
	NumResponses int     `json:"num_responses"`
}

// TopicAbility is an ability estimate restricted to one topic's responses.
type TopicAbility struct {
	TopicID      string  `json:"topic_id"`
	Ability      float64 `json:"ability"`
	Confidence   float64 `json:"confidence"`
	NumResponses int     `json:"num_responses"`
}

// ── API Request/Response Types ────────────────────────────

type EstimateAbilityRequest struct {
	UserID string `json:"user_id"`
}

type UserAbilityResponse struct {
	UserID             string         `json:"user_id"`
	OverallAbility     float64        `json:"overall_ability"`
	Confidence         float64        `json:"confidence"`
	NumResponses       int            `json:"num_responses"`
	MainTopicAbilities []TopicAbility `json:"main_topic_abilities"`
	SubTopicAbilities  []TopicAbility `json:"sub_topic_abilities"`
	Message            string         `json:"message"`
}

type EstimateAbilitiesBatchRequest struct {
	UserIDs []string `json:"user_ids"`
}

// BatchUserAbilityResponse reports one learner inside a batch call. A
// failed estimation carries a nil ability and the error kind; the batch as
// a whole never fails.
type BatchUserAbilityResponse struct {
	UserID             string         `json:"user_id"`
	OverallAbility     *float64       `json:"overall_ability"`
	Confidence         *float64       `json:"confidence"`
	NumResponses       int            `json:"num_responses"`
	MainTopicAbilities []TopicAbility `json:"main_topic_abilities,omitempty"`
	SubTopicAbilities  []TopicAbility `json:"sub_topic_abilities,omitempty"`
	Error              *string        `json:"error,omitempty"`
	ErrorKind          *string        `json:"error_kind,omitempty"`
}

type EstimateAbilitiesBatchResponse struct {
	Results         []BatchUserAbilityResponse `json:"results"`
	TotalUsers      int                        `json:"total_users"`
	SuccessfulCount int                        `json:"successful_count"`
	FailedCount     int                        `json:"failed_count"`
}

type PassingProbabilityRequest struct {
	UserID        string        `json:"user_id"`
	ExamStructure ExamStructure `json:"exam_structure"`
}

type TopicStat struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type ExamInfo struct {
	TotalQuestions     int                  `json:"total_questions"`
	AverageDifficulty  float64              `json:"average_difficulty"`
	MinCorrectNeeded   int                  `json:"min_correct_needed"`
	OverallAbility     float64              `json:"overall_ability"`
	AbilityConfidence  float64              `json:"ability_confidence"`
	MainTopicAbilities map[string]float64   `json:"main_topic_abilities"`
	TopicStatistics    map[string]TopicStat `json:"topic_statistics"`
}

type PassingProbabilityResponse struct {
	UserID             string    `json:"user_id"`
	PassingProbability float64   `json:"passing_probability"`
	ConfidenceScore    float64   `json:"confidence_score"`
	ExpectedScore      float64   `json:"expected_score"`
	PassingThreshold   float64   `json:"passing_threshold"`
	QuestionProbs      []float64 `json:"question_probabilities"`
	ExamInfo           ExamInfo  `json:"exam_info"`
	Message            string    `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
