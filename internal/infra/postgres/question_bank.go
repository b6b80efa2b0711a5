package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"trivia-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank serves question batches from the questions table (JSONB records in the
// trivia provider's shape).
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

// FetchQuestions picks amount random questions. A short bank yields a short batch and
// the session decides whether it is usable.
func (b *QuestionBank) FetchQuestions(ctx context.Context, amount int) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx, `SELECT data FROM questions ORDER BY random() LIMIT $1`, amount)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, amount)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}

// Import stores questions, skipping ones already present. It returns how many were added.
func (b *QuestionBank) Import(ctx context.Context, questions []domain.Question) (int, error) {
	batch := &pgx.Batch{}
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return 0, fmt.Errorf("marshal question: %w", err)
		}
		batch.Queue(`INSERT INTO questions (fingerprint, data) VALUES ($1, $2::jsonb) ON CONFLICT (fingerprint) DO NOTHING`,
			Fingerprint(q), string(data))
	}

	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()

	added := 0
	for range questions {
		tag, err := results.Exec()
		if err != nil {
			return added, fmt.Errorf("insert question: %w", err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// Fingerprint identifies a question by its text and correct answer.
func Fingerprint(q domain.Question) string {
	sum := sha256.Sum256([]byte(q.Text + "\x00" + q.CorrectAnswer))
	return hex.EncodeToString(sum[:])
}
