package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/internal/adapter/llm"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
	"github.com/Vaibhav2543/deep-researcher/internal/jobs"
	"github.com/Vaibhav2543/deep-researcher/internal/port"
)

const (
	sentencesPerContext = 2
	maxAnswerBullets    = 6
)

// AnswerUseCase orchestrates a question: retrieve, prompt, generate,
// and shape the result as a job the caller polls for.
type AnswerUseCase struct {
	index     *IndexUseCase
	generator port.Generator
	manager   *jobs.Manager
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAnswerUseCase(
	index *IndexUseCase,
	generator port.Generator,
	manager *jobs.Manager,
	timeout time.Duration,
	logger *zap.Logger,
) *AnswerUseCase {
	return &AnswerUseCase{
		index:     index,
		generator: generator,
		manager:   manager,
		timeout:   timeout,
		logger:    logger,
	}
}

// Ask retrieves context for the question and submits the generation to
// the job pool. It always returns a job id: an empty index yields an
// immediately failed job rather than an error.
func (u *AnswerUseCase) Ask(question string, topK int) string {
	if topK <= 0 {
		topK = 3
	}

	scored, err := u.index.Search(question, topK)
	if err != nil {
		if errors.Is(err, ErrEmptyIndex) {
			return u.manager.Fail("no documents indexed.")
		}
		return u.manager.Fail(fmt.Sprintf("retrieval failed: %v", err))
	}

	return u.manager.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		return u.generate(ctx, question, scored)
	})
}

// Answer runs the whole pipeline synchronously, for one-shot callers.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, topK int) (*domain.QueryResult, error) {
	if topK <= 0 {
		topK = 3
	}
	scored, err := u.index.Search(question, topK)
	if err != nil {
		return nil, err
	}
	return u.generate(ctx, question, scored)
}

func (u *AnswerUseCase) generate(ctx context.Context, question string, scored []domain.ScoredChunk) (*domain.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	prompt := buildPrompt(question, scored)

	start := time.Now()
	raw, err := u.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, u.classify(err)
	}
	u.logger.Info("answer generated",
		zap.String("model", u.generator.ModelName()),
		zap.Duration("elapsed", time.Since(start)))

	sources := make([]domain.SourceRef, len(scored))
	for i, s := range scored {
		sources[i] = domain.SourceRef{Source: s.Chunk.Source, Text: s.Chunk.Text, Dist: s.Distance}
	}

	return &domain.QueryResult{
		Answer:  bulletize(raw),
		Sources: sources,
	}, nil
}

// classify maps generation failures onto distinct, cause-specific
// errors so a polled job reports what actually went wrong.
func (u *AnswerUseCase) classify(err error) error {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return fmt.Errorf("generation timed out after %s: %w", u.timeout, err)
	case errors.Is(err, llm.ErrService):
		return fmt.Errorf("generation service unreachable: %w", err)
	case errors.Is(err, llm.ErrMalformedResponse):
		return fmt.Errorf("generation returned an unusable response: %w", err)
	default:
		return fmt.Errorf("generation failed: %w", err)
	}
}

// buildPrompt shortens each retrieved passage and tags it with its
// source so the model can be grounded and cite where facts came from.
func buildPrompt(question string, scored []domain.ScoredChunk) string {
	contexts := make([]string, 0, len(scored))
	for _, s := range scored {
		contexts = append(contexts, s.Chunk.Text)
	}
	short := shortenContexts(contexts, sentencesPerContext)

	blocks := make([]string, 0, len(short))
	for i, c := range short {
		if c == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", scored[i].Chunk.Source, c))
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant. Use ONLY the CONTEXT below to answer the QUESTION.\n")
	b.WriteString("Produce the answer as concise bullet points (each on a new line prefixed by '- ').\n")
	b.WriteString("If the answer is not present in the context, reply exactly: \"I don't know\".\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer in 3-6 short bullet points, prioritizing key facts and action items.")
	return b.String()
}

// bulletize normalizes a generated answer into bullet form. Text that
// already leads with a bullet passes through untouched.
func bulletize(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.HasPrefix(answer, "-") {
		return answer
	}

	sentences := splitSentences(answer)
	if len(sentences) == 0 {
		return answer
	}
	if len(sentences) > maxAnswerBullets {
		sentences = sentences[:maxAnswerBullets]
	}

	bullets := make([]string, len(sentences))
	for i, s := range sentences {
		bullets[i] = "- " + s
	}
	return strings.Join(bullets, "\n")
}
