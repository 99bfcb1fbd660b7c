package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/asvab-prep/backend/internal/advisor"
	"github.com/asvab-prep/backend/internal/assessment"
	"github.com/asvab-prep/backend/internal/auth"
	"github.com/asvab-prep/backend/internal/bank"
	"github.com/asvab-prep/backend/internal/calibration"
	"github.com/asvab-prep/backend/internal/config"
	"github.com/asvab-prep/backend/internal/database"
	"github.com/asvab-prep/backend/internal/irt"
	"github.com/asvab-prep/backend/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Calibrate the initial bank from the response history
	calibrator := &calibration.Calibrator{
		AccuracyWeight:        cfg.AccuracyWeight,
		TimeWeight:            cfg.TimeWeight,
		DefaultDiscrimination: cfg.DefaultDiscrimination,
		DefaultGuessing:       cfg.DefaultGuessing,
	}

	reload := func() (*bank.Snapshot, error) {
		history, err := bank.LoadResponseHistory(cfg.ResponseHistoryPath)
		if err != nil {
			return nil, err
		}
		topics, err := bank.LoadTopicMap(cfg.ItemTopicMapPath)
		if err != nil {
			return nil, err
		}

		result := calibrator.Calibrate(history.Responses, topics)
		log.Printf("[calibration] Calibrated %d items (mean response time %.1fs, %d records dropped)",
			len(result.Items), result.GlobalMeanTime, result.DroppedRecords+history.Dropped)

		return &bank.Snapshot{
			Bank:            bank.New(result.Items),
			ResponsesByUser: history.ByUser,
			DroppedRecords:  result.DroppedRecords + history.Dropped,
			CalibratedAt:    time.Now().UTC(),
		}, nil
	}

	snapshot, err := reload()
	if err != nil {
		log.Fatalf("Failed to calibrate item bank: %v", err)
	}
	holder := bank.NewHolder(snapshot)

	// Core engine
	estimator := &irt.Estimator{
		MaxIter: cfg.NewtonMaxIter,
		Tol:     cfg.NewtonTol,
		Clip:    cfg.AbilityClip,
	}
	engine := &irt.Engine{ExactDPThreshold: cfg.ExactDPThreshold}

	bankStore := bank.NewStore(db)
	service := assessment.NewService(holder, estimator, engine)
	service.DefaultDiscrimination = cfg.DefaultDiscrimination
	service.DefaultGuessing = cfg.DefaultGuessing
	service.Reload = reload
	service.SetStore(bankStore)

	if _, err := bankStore.SaveSnapshot(snapshot.Bank.Items(), snapshot.DroppedRecords); err != nil {
		log.Printf("WARN: failed to persist initial calibration snapshot: %v", err)
	}

	// Handlers
	authHandler := auth.NewHandler(db)
	assessHandler := assessment.NewHandler(service)
	advisorHandler := advisor.NewHandler(advisor.NewAdvisor(), service)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/ability/estimate", assessHandler.EstimateAbility).Methods("POST")
	protected.HandleFunc("/ability/estimate-batch", assessHandler.EstimateAbilitiesBatch).Methods("POST")
	protected.HandleFunc("/passing-probability/calculate", assessHandler.PassingProbability).Methods("POST")
	protected.HandleFunc("/diagnostic/question-set", assessHandler.DiagnosticSet).Methods("POST")
	protected.HandleFunc("/diagnostic/next-question", assessHandler.NextQuestion).Methods("POST")
	protected.HandleFunc("/questions/analysis", assessHandler.Analysis).Methods("GET")
	protected.HandleFunc("/advisor/study-plan", advisorHandler.StudyPlan).Methods("POST")
	protected.HandleFunc("/admin/recalibrate", assessHandler.Recalibrate).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
