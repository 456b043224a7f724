package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam-session-service/internal/config"
	"exam-session-service/internal/domain"
	amqpinfra "exam-session-service/internal/infra/amqp"
	"exam-session-service/internal/infra/memory"
	pginfra "exam-session-service/internal/infra/postgres"
	redisinfra "exam-session-service/internal/infra/redis"
	"exam-session-service/internal/session"
	transport "exam-session-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var catalog session.QuestionCatalog = memory.NewStaticQuestionCatalog(sampleQuestions())
	var topicBacking memory.TopicLookup = memory.NewStaticTopicLookup(sampleTopics())
	if pool != nil {
		catalog = pginfra.NewQuestionCatalog(pool)
		topicBacking = pginfra.NewTopicLookup(pool)
	}
	topicTTL := config.TTLDuration(cfg.Topics.TTL, 10*time.Minute)
	topics := memory.NewCachedTopicLookup(topicBacking, topicTTL)

	var store session.SessionStore = memory.NewSessionStore()
	var goals session.GoalStore = memory.NewGoalStore()
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
		goals = redisinfra.NewGoalStore(redisClient)
	}

	var events session.EventPublisher
	if cfg.AMQP.URL != "" {
		publisher, err := amqpinfra.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("amqp unavailable, goal events disabled: %v", err)
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	service := session.NewService(store, catalog, topics,
		session.WithNotifier(session.NewNotifier(goals, events)),
		session.WithReadinessPolicy(cfg.Readiness),
	)
	hub := transport.NewProgressHub()
	handler := transport.NewHandler(service, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting exam session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal catalog; swap in the Postgres-backed
// one in production.
func sampleQuestions() []domain.QuestionCandidate {
	return []domain.QuestionCandidate{
		{
			ID: "q1", ExamID: "aws-saa", ProviderID: "aws", TopicID: "t-storage",
			Difficulty: domain.DifficultyEasy,
			Prompt:     "Which service offers durable object storage?",
			Options: []domain.Option{
				{ID: "a", Text: "S3"}, {ID: "b", Text: "EC2"}, {ID: "c", Text: "SQS"},
			},
			CorrectAnswer: []string{"a"},
		},
		{
			ID: "q2", ExamID: "aws-saa", ProviderID: "aws", TopicID: "t-compute",
			Difficulty: domain.DifficultyMedium,
			Prompt:     "Which services run containers? (choose two)",
			Options: []domain.Option{
				{ID: "a", Text: "ECS"}, {ID: "b", Text: "Route 53"}, {ID: "c", Text: "EKS"},
			},
			CorrectAnswer: []string{"a", "c"},
		},
		{
			ID: "q3", ExamID: "aws-saa", ProviderID: "aws", TopicID: "t-network",
			Difficulty: domain.DifficultyHard,
			Prompt:     "Which option gives a private connection to AWS?",
			Options: []domain.Option{
				{ID: "a", Text: "Direct Connect"}, {ID: "b", Text: "CloudFront"},
			},
			CorrectAnswer: []string{"a"},
		},
	}
}

func sampleTopics() map[string]string {
	return map[string]string{
		"t-storage": "Storage",
		"t-compute": "Compute",
		"t-network": "Networking",
	}
}
