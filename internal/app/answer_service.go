package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"spokesbot/internal/classify"
	"spokesbot/internal/index"
	"spokesbot/internal/model"
)

const defaultTopK = 5

// Embedder turns text into a vector through the remote embedding service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces answer text for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AnswerCache stores generated answers keyed by question. Implementations
// must treat misses as (value "", ok false, err nil).
type AnswerCache interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Set(ctx context.Context, question, answer string) error
}

// QueryLogPublisher hands query audit entries to the async persistence path.
type QueryLogPublisher interface {
	Publish(ctx context.Context, entry model.QueryLog) error
}

// PromptConfig carries the deployment-specific wording used in prompts and
// terminal messages.
type PromptConfig struct {
	PartyName      string
	RefusalMessage string
}

// AnswerDeps wires an AnswerService. Cache and Publisher are optional; the
// rest is required.
type AnswerDeps struct {
	Classifier *classify.Classifier
	Holder     *index.Holder
	Embedder   Embedder
	Generator  Generator
	Prompts    PromptConfig
	TopK       int
	// CollabTimeout bounds each remote embedding/generation call so a stuck
	// collaborator cannot hold a request open indefinitely.
	CollabTimeout time.Duration
	Cache         AnswerCache
	Publisher     QueryLogPublisher
}

// AnswerService runs one question through the full pipeline:
// classify, retrieve, compose, generate. It holds no per-query state, so any
// number of Answer calls may run concurrently against the same index
// snapshot.
type AnswerService struct {
	classifier    *classify.Classifier
	holder        *index.Holder
	embedder      Embedder
	generator     Generator
	prompts       PromptConfig
	topK          int
	collabTimeout time.Duration
	cache         AnswerCache
	publisher     QueryLogPublisher
}

func NewAnswerService(deps AnswerDeps) *AnswerService {
	topK := deps.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	timeout := deps.CollabTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnswerService{
		classifier:    deps.Classifier,
		holder:        deps.Holder,
		embedder:      deps.Embedder,
		generator:     deps.Generator,
		prompts:       deps.Prompts,
		topK:          topK,
		collabTimeout: timeout,
		cache:         deps.Cache,
		publisher:     deps.Publisher,
	}
}

// AnswerResult is the outcome of one answered question.
type AnswerResult struct {
	Answer      string         `json:"answer"`
	Labels      []model.Label  `json:"labels"`
	Comparative bool           `json:"comparative"`
	OutOfScope  bool           `json:"out_of_scope"`
	Cached      bool           `json:"cached"`
	Chunks      []index.Result `json:"chunks,omitempty"`
	Prompt      string         `json:"prompt,omitempty"`
}

// Answer classifies the question, retrieves label-scoped context and asks the
// generation service for an answer. An out-of-scope question terminates with
// the configured refusal message and never reaches the collaborators.
// Collaborator failures surface as ErrEmbeddingUnavailable or
// ErrGenerationFailed; no retry happens here.
func (s *AnswerService) Answer(ctx context.Context, question string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", ErrInvalidInput)
	}
	started := time.Now()

	cls := s.classifier.Classify(question)
	if cls.OutOfScope() {
		s.audit(ctx, question, cls, model.QueryOutcomeRefused, s.prompts.RefusalMessage, 0, started)
		return &AnswerResult{
			Answer:     s.prompts.RefusalMessage,
			OutOfScope: true,
		}, nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, question)
		if err != nil {
			log.Printf("answer cache get failed: %v", err)
		} else if ok {
			return &AnswerResult{
				Answer:      cached,
				Labels:      cls.Labels,
				Comparative: cls.Comparative,
				Cached:      true,
			}, nil
		}
	}

	chunks, err := s.retrieve(ctx, question, cls)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(s.prompts.PartyName, cls, chunks, question)

	genCtx, cancel := context.WithTimeout(ctx, s.collabTimeout)
	defer cancel()
	raw, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	answer := cleanAnswer(raw)

	if s.cache != nil {
		if err := s.cache.Set(ctx, question, answer); err != nil {
			log.Printf("answer cache set failed: %v", err)
		}
	}
	s.audit(ctx, question, cls, model.QueryOutcomeAnswered, answer, len(chunks), started)

	return &AnswerResult{
		Answer:      answer,
		Labels:      cls.Labels,
		Comparative: cls.Comparative,
		Chunks:      chunks,
		Prompt:      prompt,
	}, nil
}

// retrieve embeds the (expanded) question and searches the live index
// restricted to the classified labels. An empty result is valid; only a
// failed embedding call is an error.
func (s *AnswerService) retrieve(ctx context.Context, question string, cls classify.Result) ([]index.Result, error) {
	embCtx, cancel := context.WithTimeout(ctx, s.collabTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(embCtx, expandQuery(question))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	return s.holder.Current().Search(vec, cls.Labels, s.topK), nil
}

func (s *AnswerService) audit(ctx context.Context, question string, cls classify.Result, outcome, answer string, chunkCount int, started time.Time) {
	if s.publisher == nil {
		return
	}
	entry := model.QueryLog{
		Question:   question,
		Labels:     model.JoinLabels(cls.Labels, ","),
		Outcome:    outcome,
		Answer:     answer,
		ChunkCount: chunkCount,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err := s.publisher.Publish(ctx, entry); err != nil {
		log.Printf("publish query log failed: %v", err)
	}
}
