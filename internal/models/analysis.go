package models

// ── Bank Analysis Types ───────────────────────────────────

type DifficultyStatistics struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

type DiscriminationStatistics struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// DifficultyDistribution buckets items by standard-normal difficulty:
// easy [-3, -1), medium [-1, 1], hard (1, 3].
type DifficultyDistribution struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

type TopicCount struct {
	TopicID       string `json:"topic_id"`
	QuestionCount int    `json:"question_count"`
}

type TopicDistribution struct {
	ByMainTopic     map[string]int `json:"by_main_topic"`
	BySubTopic      map[string]int `json:"by_sub_topic"`
	TotalMainTopics int            `json:"total_main_topics"`
	TotalSubTopics  int            `json:"total_sub_topics"`
	Top5MainTopics  []TopicCount   `json:"top_5_main_topics"`
}

type BankAnalysis struct {
	TotalQuestions int `json:"total_questions"`
	Uncalibrated   int `json:"uncalibrated"`
	Statistics     struct {
		Difficulty     DifficultyStatistics     `json:"difficulty"`
		Discrimination DiscriminationStatistics `json:"discrimination"`
	} `json:"statistics"`
	Distributions struct {
		Difficulty DifficultyDistribution `json:"difficulty"`
		Topics     TopicDistribution      `json:"topics"`
	} `json:"distributions"`
}

// ── Diagnostic Selection Types ────────────────────────────

type DiagnosticSetRequest struct {
	NumQuestions   int      `json:"num_questions"`
	CoverageTopics []string `json:"coverage_topics,omitempty"`
}

type DiagnosticQuestion struct {
	QuestionID     string  `json:"question_id"`
	MainTopicID    string  `json:"main_topic_id"`
	SubTopicID     string  `json:"sub_topic_id"`
	Difficulty     float64 `json:"difficulty"`
	Discrimination float64 `json:"discrimination"`
}

type DiagnosticSetResponse struct {
	Questions      []DiagnosticQuestion `json:"questions"`
	TotalQuestions int                  `json:"total_questions"`
	Message        string               `json:"message"`
}

type NextQuestionRequest struct {
	UserID              string   `json:"user_id"`
	CandidateQuestions  []string `json:"candidate_questions,omitempty"`
	AnsweredQuestionIDs []string `json:"answered_question_ids,omitempty"`
}

type NextQuestionResponse struct {
	Question    DiagnosticQuestion `json:"question"`
	Ability     float64            `json:"ability"`
	Confidence  float64            `json:"confidence"`
	Information float64            `json:"information"`
	Message     string             `json:"message"`
}
