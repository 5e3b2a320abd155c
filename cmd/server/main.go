// Package main provides the stayrate API server: HTTP transport around
// the pricing decision engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stayrate/internal/config"
	"stayrate/internal/engine"
	"stayrate/internal/history"
	"stayrate/internal/outcomes"
	"stayrate/pkg/api"
	engerrors "stayrate/pkg/errors"
)

var (
	version   = "0.1.0"
	startTime = time.Now()
)

type server struct {
	engine   *engine.Engine
	history  *history.PostgresRepository
	outcomes *outcomes.Store
	cfg      *config.Config
}

func main() {
	cfgFile := flag.String("config", "", "path to config file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	srv := &server{
		engine: engine.New(),
		cfg:    cfg,
	}

	if cfg.PostgresDSN != "" {
		repo, err := history.NewPostgresRepository(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to history repository")
		}
		defer repo.Close()
		srv.history = repo
	}

	if cfg.ClickHouse.Host != "" {
		store, err := outcomes.NewStore(&outcomes.Config{
			Host:     cfg.ClickHouse.Host,
			Port:     cfg.ClickHouse.Port,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
			Debug:    cfg.ClickHouse.Debug,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to outcome store")
		}
		defer store.Close()
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure outcome schema")
		}
		srv.outcomes = store
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health endpoints
	r.Get("/health", srv.handleHealth)
	r.Get("/health/live", handleLiveness)
	r.Get("/health/ready", srv.handleReadiness)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/score", srv.handleScore)
		r.Post("/score/batch", srv.handleScoreBatch)
		r.Post("/learn", srv.handleLearn)
	})

	r.Get("/version", handleVersion)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().
		Int("port", cfg.Port).
		Str("version", version).
		Bool("history_repository", srv.history != nil).
		Bool("outcome_store", srv.outcomes != nil).
		Msg("Starting stayrate API server")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "stayrate-api",
		"version": version,
		"uptime":  time.Since(startTime).String(),
	})
}

func handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.history != nil {
		if err := s.history.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "history repository unreachable",
			})
			return
		}
	}
	if s.outcomes != nil {
		if err := s.outcomes.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "outcome store unreachable",
			})
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version": version,
		"service": "stayrate-api",
	})
}

func (s *server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req api.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.attachHistory(r.Context(), &req); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history: "+err.Error())
		return
	}

	rec, err := s.engine.Score(req)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *server) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.attachHistory(r.Context(), &req.ScoreRequest); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history: "+err.Error())
		return
	}

	recs, err := s.engine.ScoreBatch(req)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

func (s *server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req api.LearnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := s.engine.Learn(req)

	if s.outcomes != nil && resp.Accepted > 0 {
		accepted := make([]api.OutcomeRecord, 0, resp.Accepted)
		for _, rec := range req.Records {
			if engine.ValidateOutcome(rec) == nil {
				accepted = append(accepted, rec)
			}
		}
		if _, err := s.outcomes.InsertOutcomes(r.Context(), accepted); err != nil {
			log.Error().Err(err).Msg("Failed to persist outcome records")
			respondError(w, http.StatusInternalServerError, "failed to persist outcomes")
			return
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// attachHistory loads observations from the repository when the request
// does not embed its own and a repository is configured.
func (s *server) attachHistory(ctx context.Context, req *api.ScoreRequest) error {
	if len(req.History) > 0 || req.FallbackOnly || s.history == nil || req.UnitID == "" {
		return nil
	}
	obs, err := s.history.ObservationsForUnit(ctx, req.UnitID, s.cfg.HistoryLookbackDays)
	if err != nil {
		return err
	}
	req.History = obs
	return nil
}

func respondEngineError(w http.ResponseWriter, err error) {
	var engErr *engerrors.EngineError
	if errors.As(err, &engErr) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"code":    engErr.Code,
			"error":   engErr.Message,
		})
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
