package assessment

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/asvab-prep/backend/internal/bank"
	"github.com/asvab-prep/backend/internal/irt"
	"github.com/asvab-prep/backend/internal/models"
	"github.com/asvab-prep/backend/internal/selector"
)

// minTopicResponses is the floor below which a per-topic ability is too
// noisy to report on the ability endpoints.
const minTopicResponses = 3

// Service orchestrates the psychometric engine over the current bank
// snapshot. Every call reads one immutable snapshot, so concurrent
// requests and batch fan-out need no locking.
type Service struct {
	holder    *bank.Holder
	estimator *irt.Estimator
	engine    *irt.Engine
	store     *bank.Store

	DefaultDiscrimination float64
	DefaultGuessing       float64

	// Reload rebuilds a snapshot from source data; set by main, used by
	// Recalibrate.
	Reload func() (*bank.Snapshot, error)

	rng *rand.Rand
	mu  sync.Mutex
}

func NewService(holder *bank.Holder, estimator *irt.Estimator, engine *irt.Engine) *Service {
	return &Service{
		holder:                holder,
		estimator:             estimator,
		engine:                engine,
		DefaultDiscrimination: 1.0,
		DefaultGuessing:       0.25,
		rng:                   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetStore attaches the persistence layer used to record calibration runs.
func (s *Service) SetStore(store *bank.Store) {
	s.store = store
}

// ── Ability Estimation ──────────────────────────────────

func (s *Service) EstimateAbility(userID string) (*models.UserAbilityResponse, error) {
	return s.estimateReport(s.holder.Current(), userID)
}

// estimateReport runs one learner's full ability report against a single
// snapshot, so a concurrent recalibration cannot split a call across two
// banks.
func (s *Service) estimateReport(snap *bank.Snapshot, userID string) (*models.UserAbilityResponse, error) {
	responses := snap.Responses(userID)
	if len(responses) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, irt.ErrNoResponses)
	}

	overall, err := s.estimator.Estimate(responses, snap.Bank)
	if err != nil {
		return nil, err
	}

	mainAbilities, err := s.topicAbilities(snap, responses, true, minTopicResponses)
	if err != nil {
		return nil, err
	}
	subAbilities, err := s.topicAbilities(snap, responses, false, minTopicResponses)
	if err != nil {
		return nil, err
	}

	return &models.UserAbilityResponse{
		UserID:             userID,
		OverallAbility:     overall.Theta,
		Confidence:         overall.Confidence,
		NumResponses:       overall.NumResponses,
		MainTopicAbilities: mainAbilities,
		SubTopicAbilities:  subAbilities,
		Message:            "Ability estimated successfully",
	}, nil
}

// EstimateAbilitiesBatch estimates every requested learner concurrently.
// Per-learner failures are embedded in the result; the batch itself never
// fails. Result order matches the input order.
func (s *Service) EstimateAbilitiesBatch(userIDs []string) *models.EstimateAbilitiesBatchResponse {
	results := make([]models.BatchUserAbilityResponse, len(userIDs))

	snap := s.holder.Current()

	var wg sync.WaitGroup
	for i, userID := range userIDs {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			results[i] = s.estimateOne(snap, userID)
		}(i, userID)
	}
	wg.Wait()

	resp := &models.EstimateAbilitiesBatchResponse{
		Results:    results,
		TotalUsers: len(userIDs),
	}
	for _, r := range results {
		if r.Error == nil {
			resp.SuccessfulCount++
		} else {
			resp.FailedCount++
		}
	}
	return resp
}

func (s *Service) estimateOne(snap *bank.Snapshot, userID string) models.BatchUserAbilityResponse {
	numResponses := len(snap.Responses(userID))

	report, err := s.estimateReport(snap, userID)
	if err != nil {
		msg := err.Error()
		kind := irt.Kind(err)
		return models.BatchUserAbilityResponse{
			UserID:       userID,
			NumResponses: numResponses,
			Error:        &msg,
			ErrorKind:    &kind,
		}
	}

	return models.BatchUserAbilityResponse{
		UserID:             userID,
		OverallAbility:     &report.OverallAbility,
		Confidence:         &report.Confidence,
		NumResponses:       report.NumResponses,
		MainTopicAbilities: report.MainTopicAbilities,
		SubTopicAbilities:  report.SubTopicAbilities,
	}
}

// topicAbilities partitions the responses by topic and fits each group
// separately. Groups under minResponses, and responses whose item has no
// topic, are omitted. Output is sorted by topic ID for determinism.
func (s *Service) topicAbilities(snap *bank.Snapshot, responses []models.Response, mainTopic bool, minResponses int) ([]models.TopicAbility, error) {
	groups := make(map[string][]models.Response)
	for _, r := range responses {
		item, ok := snap.Bank.Item(r.QuestionID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", irt.ErrUnknownItem, r.QuestionID)
		}
		topicID := item.SubTopicID
		if mainTopic {
			topicID = item.MainTopicID
		}
		if topicID == "" {
			continue
		}
		groups[topicID] = append(groups[topicID], r)
	}

	abilities := make([]models.TopicAbility, 0, len(groups))
	for topicID, group := range groups {
		if len(group) < minResponses {
			continue
		}
		est, err := s.estimator.Estimate(group, snap.Bank)
		if err != nil {
			return nil, fmt.Errorf("topic %s: %w", topicID, err)
		}
		abilities = append(abilities, models.TopicAbility{
			TopicID:      topicID,
			Ability:      est.Theta,
			Confidence:   est.Confidence,
			NumResponses: est.NumResponses,
		})
	}

	sort.Slice(abilities, func(i, j int) bool { return abilities[i].TopicID < abilities[j].TopicID })
	return abilities, nil
}

// ── Passing Probability ─────────────────────────────────

func (s *Service) PassingProbability(req models.PassingProbabilityRequest) (*models.PassingProbabilityResponse, error) {
	snap := s.holder.Current()

	responses := snap.Responses(req.UserID)
	if len(responses) == 0 {
		return nil, fmt.Errorf("user %s: %w", req.UserID, irt.ErrNoResponses)
	}

	examItems, err := s.resolveExam(snap, req.ExamStructure)
	if err != nil {
		return nil, err
	}

	overall, err := s.estimator.Estimate(responses, snap.Bank)
	if err != nil {
		return nil, err
	}

	// Per-main-topic abilities sharpen the per-question probabilities when
	// the learner has any history in that topic.
	mainAbilities, err := s.topicAbilities(snap, responses, true, 1)
	if err != nil {
		return nil, err
	}
	abilityByTopic := make(map[string]float64, len(mainAbilities))
	for _, ta := range mainAbilities {
		abilityByTopic[ta.TopicID] = ta.Ability
	}

	probs := make([]float64, len(examItems))
	var totalDifficulty float64
	for i, it := range examItems {
		theta := overall.Theta
		if it.MainTopicID != "" {
			if topicTheta, ok := abilityByTopic[it.MainTopicID]; ok {
				theta = topicTheta
			}
		}
		probs[i] = irt.Probability(theta, it.Discrimination, it.Difficulty, it.Guessing)
		totalDifficulty += it.Difficulty
	}

	result, err := s.engine.FromProbabilities(probs, req.ExamStructure.PassingThreshold)
	if err != nil {
		return nil, err
	}

	confidence := irt.AggregateConfidence(overall.Confidence, probs)

	info := models.ExamInfo{
		TotalQuestions:     len(examItems),
		AverageDifficulty:  round2(totalDifficulty / float64(len(examItems))),
		MinCorrectNeeded:   result.MinCorrect,
		OverallAbility:     round2(overall.Theta),
		AbilityConfidence:  round2(overall.Confidence),
		MainTopicAbilities: roundMap(abilityByTopic),
		TopicStatistics:    s.topicStatistics(snap, responses),
	}

	return &models.PassingProbabilityResponse{
		UserID:             req.UserID,
		PassingProbability: round2(result.PassProbability),
		ConfidenceScore:    round3(confidence),
		ExpectedScore:      round2(result.ExpectedScore),
		PassingThreshold:   req.ExamStructure.PassingThreshold * 100.0,
		QuestionProbs:      probs,
		ExamInfo:           info,
		Message:            "Passing probability calculated successfully",
	}, nil
}

// resolveExam turns the request's exam structure into concrete items.
// Explicit questions may override difficulty and discrimination; anything
// unspecified falls back to the calibrated bank, then to neutral defaults.
func (s *Service) resolveExam(snap *bank.Snapshot, exam models.ExamStructure) ([]models.Item, error) {
	var items []models.Item

	switch {
	case len(exam.Questions) > 0:
		items = make([]models.Item, len(exam.Questions))
		for i, q := range exam.Questions {
			item := models.Item{
				ID:             q.QuestionID,
				Discrimination: s.DefaultDiscrimination,
				Guessing:       s.DefaultGuessing,
			}
			if banked, ok := snap.Bank.Item(q.QuestionID); ok {
				item = banked
			}
			if q.Difficulty != nil {
				item.Difficulty = *q.Difficulty
			}
			if q.Discrimination > 0 {
				item.Discrimination = q.Discrimination
			}
			items[i] = item
		}
	case len(exam.Topics) > 0:
		s.mu.Lock()
		for _, ts := range exam.Topics {
			items = append(items, selector.FromTopicStructure(snap.Bank.Items(), ts, s.rng)...)
		}
		s.mu.Unlock()
	}

	if len(items) == 0 {
		return nil, irt.ErrEmptyExam
	}
	return items, nil
}

// topicStatistics tallies raw per-main-topic accuracy over the learner's
// history.
func (s *Service) topicStatistics(snap *bank.Snapshot, responses []models.Response) map[string]models.TopicStat {
	stats := make(map[string]models.TopicStat)
	for _, r := range responses {
		item, ok := snap.Bank.Item(r.QuestionID)
		if !ok || item.MainTopicID == "" {
			continue
		}
		st := stats[item.MainTopicID]
		st.Total++
		if r.Correct {
			st.Correct++
		}
		stats[item.MainTopicID] = st
	}
	for topicID, st := range stats {
		st.Accuracy = round2(float64(st.Correct) / float64(st.Total) * 100.0)
		stats[topicID] = st
	}
	return stats
}

// ── Diagnostic Selection ────────────────────────────────

func (s *Service) DiagnosticSet(req models.DiagnosticSetRequest) *models.DiagnosticSetResponse {
	snap := s.holder.Current()

	if req.NumQuestions <= 0 {
		req.NumQuestions = 20
	}

	s.mu.Lock()
	picked := selector.InitialSet(snap.Bank.Items(), req.NumQuestions, req.CoverageTopics, s.rng)
	s.mu.Unlock()

	questions := make([]models.DiagnosticQuestion, len(picked))
	for i, q := range picked {
		questions[i] = toDiagnosticQuestion(q)
	}

	return &models.DiagnosticSetResponse{
		Questions:      questions,
		TotalQuestions: len(questions),
		Message:        "Successfully generated diagnostic question set",
	}
}

func (s *Service) NextQuestion(req models.NextQuestionRequest) (*models.NextQuestionResponse, error) {
	snap := s.holder.Current()

	responses := snap.Responses(req.UserID)
	if len(responses) == 0 {
		return nil, fmt.Errorf("user %s: %w", req.UserID, irt.ErrNoResponses)
	}

	est, err := s.estimator.Estimate(responses, snap.Bank)
	if err != nil {
		return nil, err
	}

	answered := make(map[string]bool, len(responses)+len(req.AnsweredQuestionIDs))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}
	for _, id := range req.AnsweredQuestionIDs {
		answered[id] = true
	}

	candidates := snap.Bank.Items()
	if len(req.CandidateQuestions) > 0 {
		candidates = candidates[:0:0]
		for _, id := range req.CandidateQuestions {
			if item, ok := snap.Bank.Item(id); ok {
				candidates = append(candidates, item)
			}
		}
	}

	best, info, err := selector.NextQuestion(candidates, answered, est.Theta)
	if err != nil {
		return nil, err
	}

	return &models.NextQuestionResponse{
		Question:    toDiagnosticQuestion(best),
		Ability:     round2(est.Theta),
		Confidence:  round2(est.Confidence),
		Information: info,
		Message:     "Next question selected",
	}, nil
}

// ── Recalibration ───────────────────────────────────────

// Recalibrate rebuilds the bank from source data and publishes it with an
// atomic swap. In-flight estimations finish against the snapshot they
// started with.
func (s *Service) Recalibrate() (*bank.Snapshot, error) {
	if s.Reload == nil {
		return nil, fmt.Errorf("recalibration is not configured")
	}

	snap, err := s.Reload()
	if err != nil {
		return nil, fmt.Errorf("recalibrate: %w", err)
	}

	s.holder.Swap(snap)
	log.Printf("[calibration] Swapped in new bank: %d items, %d dropped records",
		snap.Bank.Len(), snap.DroppedRecords)

	if s.store != nil {
		if _, err := s.store.SaveSnapshot(snap.Bank.Items(), snap.DroppedRecords); err != nil {
			log.Printf("WARN: failed to persist calibration snapshot: %v", err)
		}
	}

	return snap, nil
}

// ── Helpers ─────────────────────────────────────────────

func toDiagnosticQuestion(q models.Item) models.DiagnosticQuestion {
	return models.DiagnosticQuestion{
		QuestionID:     q.ID,
		MainTopicID:    q.MainTopicID,
		SubTopicID:     q.SubTopicID,
		Difficulty:     q.Difficulty,
		Discrimination: q.Discrimination,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func roundMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = round2(v)
	}
	return out
}
