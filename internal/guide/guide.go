// Package guide wires the answer pipeline: scope resolution, context
// building, retrieval, prompt assembly and the LLM call.
package guide

import (
	"context"
	"log"
	"time"

	"github.com/denizyalin/museguide/internal/convo"
	"github.com/denizyalin/museguide/internal/exhibits"
	"github.com/denizyalin/museguide/internal/gateway"
	"github.com/denizyalin/museguide/internal/intent"
	"github.com/denizyalin/museguide/internal/memory"
	"github.com/denizyalin/museguide/internal/observability"
	"github.com/denizyalin/museguide/internal/prompt"
	"github.com/denizyalin/museguide/internal/retrieval"
	"github.com/denizyalin/museguide/internal/usage"
)

// Completer is the slice of the LLM gateway the pipeline needs.
type Completer interface {
	Call(ctx context.Context, req gateway.Request) (string, error)
}

// Answer is one guide reply with its provenance.
type Answer struct {
	Text      string        `json:"answer"`
	Sources   []string      `json:"sources,omitempty"`
	Intent    intent.Intent `json:"intent"`
	ExhibitID string        `json:"exhibit_id,omitempty"`
}

// backgroundTaskTimeout bounds post-answer side work such as memory
// extraction.
const backgroundTaskTimeout = 30 * time.Second

type Service struct {
	catalog   *exhibits.Catalog
	convos    *convo.Manager
	retriever retrieval.Retriever
	completer Completer
	memories  *memory.Manager
	extractor *memory.Extractor
	activity  *usage.Activity
	metrics   *observability.Metrics
}

func NewService(
	catalog *exhibits.Catalog,
	convos *convo.Manager,
	retriever retrieval.Retriever,
	completer Completer,
	memories *memory.Manager,
	extractor *memory.Extractor,
	activity *usage.Activity,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		catalog:   catalog,
		convos:    convos,
		retriever: retriever,
		completer: completer,
		memories:  memories,
		extractor: extractor,
		activity:  activity,
		metrics:   metrics,
	}
}

// Ask answers one visitor question. The code parameter is an optional
// scanned QR payload or exhibit ID that scopes the question to a
// single piece.
func (s *Service) Ask(ctx context.Context, userID, question, code string) (Answer, error) {
	started := time.Now()

	var exhibitID, exhibitName string
	if code != "" {
		if exhibit, ok := s.catalog.Resolve(code); ok {
			exhibitID = exhibit.ID
			exhibitName = exhibit.DisplayName()
		} else {
			log.Printf("guide: unknown exhibit code %q, answering unscoped", code)
		}
	}

	history := s.convos.History(userID)
	historySummary, convCtx := convo.BuildContext(history, exhibitName)

	resolveStart := time.Now()
	enhanced := convo.ResolveReferences(question, convCtx, history)
	s.metrics.ObserveStage(observability.StageResolve, time.Since(resolveStart))

	in := intent.Classify(enhanced)
	k := prompt.ChunkCount(in, exhibitID != "")

	retrieveStart := time.Now()
	passages, err := s.retriever.Retrieve(ctx, enhanced, exhibitID, k)
	s.metrics.ObserveStage(observability.StageRetrieve, time.Since(retrieveStart))
	if err != nil {
		// Answer from the model's own knowledge rather than failing
		// the visitor.
		log.Printf("guide: retrieval degraded for user %s: %v", userID, err)
		s.metrics.ObserveIndicator("index_unavailable")
		passages = nil
	}

	if exhibitID == "" {
		// Museum-wide questions get live collection facts alongside
		// whatever the index returned.
		passages = append([]retrieval.Passage{{Content: s.catalog.StatsContext()}}, passages...)
	}

	memorySummary := ""
	if s.memories != nil {
		mem, err := s.memories.Get(ctx, userID)
		if err != nil {
			log.Printf("guide: load memory for user %s: %v", userID, err)
		} else {
			memorySummary = memory.Summary(mem)
		}
	}

	req := gateway.Request{
		System: prompt.System(in, exhibitName),
		User:   prompt.Build(enhanced, passages, historySummary, memorySummary),
	}

	llmStart := time.Now()
	text, err := s.completer.Call(ctx, req)
	s.metrics.ObserveStage(observability.StageLLM, time.Since(llmStart))
	if err != nil {
		return Answer{}, err
	}

	s.convos.Append(userID, convo.RoleVisitor, question)
	s.convos.Append(userID, convo.RoleGuide, text)
	if s.activity != nil {
		s.activity.TrackQuestion(question)
	}
	s.afterAnswer(userID, question, text, exhibitName)
	s.metrics.ObserveAnswerLatency(time.Since(started))

	return Answer{
		Text:      text,
		Sources:   prompt.Sources(passages),
		Intent:    in,
		ExhibitID: exhibitID,
	}, nil
}

// afterAnswer runs side work that must not delay the reply: profile
// extraction and visit recording.
func (s *Service) afterAnswer(userID, question, answer, exhibitName string) {
	if s.extractor != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundTaskTimeout)
			defer cancel()
			s.extractor.ExtractAndStore(ctx, userID, question, answer)
		}()
	}
	if s.memories != nil && exhibitName != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundTaskTimeout)
			defer cancel()
			if err := s.memories.RecordVisit(ctx, userID, exhibitName); err != nil {
				log.Printf("guide: record visit for user %s: %v", userID, err)
			}
		}()
	}
}

// Reset clears one visitor's conversation state.
func (s *Service) Reset(userID string) {
	s.convos.Clear(userID)
}
