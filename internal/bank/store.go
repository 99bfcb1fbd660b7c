package bank

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/asvab-prep/backend/internal/models"
)

// Store persists calibration runs so a restarted server can report on the
// bank it is serving and operators can compare runs over time.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CalibrationRun summarizes one persisted calibration.
type CalibrationRun struct {
	ID             int64     `json:"id"`
	ItemCount      int       `json:"item_count"`
	DroppedRecords int       `json:"dropped_records"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveSnapshot records a calibration run and its item parameters.
func (s *Store) SaveSnapshot(items []models.Item, droppedRecords int) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRow(
		`INSERT INTO calibration_runs (item_count, dropped_records)
		 VALUES ($1, $2)
		 RETURNING id`,
		len(items), droppedRecords,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert calibration run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO calibrated_items
		 (run_id, question_id, difficulty, discrimination, guessing,
		  main_topic_id, sub_topic_id, calibrated, attempt_count, correct_count, mean_response_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		_, err := stmt.Exec(runID, it.ID, it.Difficulty, it.Discrimination, it.Guessing,
			it.MainTopicID, it.SubTopicID, it.Calibrated,
			it.AttemptCount, it.CorrectCount, it.MeanResponseTime)
		if err != nil {
			return 0, fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent calibration run, or nil when none
// has been persisted yet.
func (s *Store) LatestRun() (*CalibrationRun, error) {
	var run CalibrationRun
	err := s.db.QueryRow(
		`SELECT id, item_count, dropped_records, created_at
		 FROM calibration_runs
		 ORDER BY id DESC
		 LIMIT 1`,
	).Scan(&run.ID, &run.ItemCount, &run.DroppedRecords, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest calibration run: %w", err)
	}
	return &run, nil
}

// LoadSnapshot restores the item parameters of one persisted run.
func (s *Store) LoadSnapshot(runID int64) ([]models.Item, error) {
	rows, err := s.db.Query(
		`SELECT question_id, difficulty, discrimination, guessing,
		        main_topic_id, sub_topic_id, calibrated, attempt_count, correct_count, mean_response_time
		 FROM calibrated_items
		 WHERE run_id = $1
		 ORDER BY question_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", runID, err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Difficulty, &it.Discrimination, &it.Guessing,
			&it.MainTopicID, &it.SubTopicID, &it.Calibrated,
			&it.AttemptCount, &it.CorrectCount, &it.MeanResponseTime); err != nil {
			return nil, fmt.Errorf("scan snapshot item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
