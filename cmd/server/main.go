package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"health-assistant/internal/agent"
	"health-assistant/internal/config"
	"health-assistant/internal/doctors"
	"health-assistant/internal/llm"
	"health-assistant/internal/rag"
	"health-assistant/internal/session"
	"health-assistant/internal/triage"
	"health-assistant/internal/workshops"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.DefaultContextLogger = &log.Logger

	// 1. Infrastructure
	db := connectDB(cfg.DatabaseURL)
	defer db.Close()

	runMigrations(cfg.DatabaseURL)

	store := buildSessionStore(cfg, db)

	// 2. Clients
	aiClient := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	retriever := rag.NewClient(cfg.RAG.BaseURL, cfg.RAG.Timeout)

	// 3. Interpreters
	triageInterp := triage.NewInterpreter(aiClient, store, retriever, cfg.Session.SummaryTurns, cfg.RAG.MaxResults)
	doctorsInterp := doctors.NewInterpreter(aiClient, store, retriever, doctors.NewPostgresDirectory(db), cfg.Session.SummaryTurns, cfg.RAG.MaxResults)
	workshopsInterp := workshops.NewInterpreter(aiClient, store, retriever, workshops.NewRepository(db), cfg.Session.SummaryTurns, cfg.RAG.MaxResults)

	router := agent.NewRouter(aiClient, triageInterp, doctorsInterp, workshopsInterp, log.Logger)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	triage.RegisterRoutes(r, triage.NewHandler(triageInterp))
	doctors.RegisterRoutes(r, doctors.NewHandler(doctorsInterp))
	workshops.RegisterRoutes(r, workshops.NewHandler(workshopsInterp))
	agent.RegisterRoutes(r, agent.NewHandler(router))

	log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// connectDB opens the Postgres pool with a retry loop so the server survives
// the database coming up a few seconds later in docker-compose.
func connectDB(connStr string) *sql.DB {
	var (
		db  *sql.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(2 * time.Second)
	}
	log.Fatal().Err(err).Msg("could not connect to database")
	return nil
}

func runMigrations(connStr string) {
	m, err := migrate.New("file://migrations", connStr)
	if err != nil {
		log.Fatal().Err(err).Msg("migration init failed")
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal().Err(err).Msg("migration up failed")
	}
	log.Info().Msg("migrations applied")
}

func buildSessionStore(cfg *config.Config, db *sql.DB) session.Store {
	switch cfg.Session.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr})
		log.Info().Str("addr", cfg.Session.RedisAddr).Msg("using redis session store")
		return session.NewRedisStore(client, cfg.Session.MaxTurns)
	case "postgres":
		log.Info().Msg("using postgres session store")
		return session.NewPostgresStore(db, cfg.Session.MaxTurns)
	default:
		log.Info().Msg("using in-memory session store")
		return session.NewMemoryStore(cfg.Session.MaxTurns)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// corsMiddleware mirrors the configured origins for the web frontend. An
// empty list allows any origin, which is only sensible in development.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(allowed) == 0:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			default:
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
