package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	pgbank "trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/infra/trivia"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd fills the Postgres question bank from the trivia API.
func NewSeedCmd(configPath *string) *cobra.Command {
	var batches int
	var pause time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import trivia questions into the Postgres question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, batches, pause)
		},
	}
	cmd.Flags().IntVar(&batches, "batches", 10, "number of question batches to import")
	// the public API rate-limits to one request every few seconds per client
	cmd.Flags().DurationVar(&pause, "pause", 5*time.Second, "wait between batch requests")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, batches int, pause time.Duration) error {
	if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	bank := pgbank.NewQuestionBank(pool)
	client := newTriviaClient(cfg)
	amount := cfg.Quiz.Length
	if amount <= 0 {
		amount = domain.QuizLength
	}

	total := 0
	for i := 0; i < batches; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
		questions, err := client.FetchQuestions(ctx, amount)
		if err != nil {
			return fmt.Errorf("batch %d: %w", i+1, err)
		}
		added, err := bank.Import(ctx, questions)
		if err != nil {
			return fmt.Errorf("batch %d: %w", i+1, err)
		}
		total += added
		log.Printf("batch %d: imported %d of %d questions", i+1, added, len(questions))
	}
	log.Printf("seed finished: %d new questions", total)
	return nil
}

func newTriviaClient(cfg config.Config) *trivia.Client {
	return trivia.NewClient(trivia.Config{
		BaseURL:  cfg.Trivia.BaseURL,
		Timeout:  config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second),
		Retries:  cfg.Trivia.Retries,
		RetryMin: config.TTLDuration(cfg.Trivia.RetryMin, 500*time.Millisecond),
		UseToken: cfg.Trivia.UseToken,
	})
}
