package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
)

// DefaultTopK is the default number of candidates to return.
const DefaultTopK = 5

// ResolutionState names a step of a single resolution.
type ResolutionState string

// Resolution states, in the order a successful query visits them.
const (
	StateStart          ResolutionState = "START"
	StateResolveExact   ResolutionState = "RESOLVE_EXACT"
	StateEmbedAnchor    ResolutionState = "EMBED_ANCHOR"
	StateQueryByRawText ResolutionState = "QUERY_BY_RAW_TEXT"
	StateQueryVector    ResolutionState = "QUERY_VECTOR"
	StateRank           ResolutionState = "RANK"
	StateDone           ResolutionState = "DONE"
	StateFailed         ResolutionState = "FAILED"
)

// ResolutionService answers "given an ISIN or a name, which LEIs match?".
// It holds no state between calls, so one instance can serve concurrent
// queries.
type ResolutionService struct {
	resolver    *RelationalResolver
	synthesizer *TemplateSynthesizer
	embedder    ports.Embedder
	index       *VectorIndexClient
	logger      *slog.Logger
}

// NewResolutionService wires the resolution pipeline.
func NewResolutionService(
	resolver *RelationalResolver,
	synthesizer *TemplateSynthesizer,
	embedder ports.Embedder,
	index *VectorIndexClient,
	logger *slog.Logger,
) *ResolutionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolutionService{
		resolver:    resolver,
		synthesizer: synthesizer,
		embedder:    embedder,
		index:       index,
		logger:      logger.With("component", "resolution"),
	}
}

// resolution carries per-call state through the state machine.
type resolution struct {
	state   ResolutionState
	anchors []*entities.Entity
	text    string
	logger  *slog.Logger
}

func (r *resolution) enter(state ResolutionState) {
	r.state = state
	r.logger.Debug("resolution state", "state", state)
}

func (r *resolution) fail(err error) error {
	r.logger.Debug("resolution state", "state", StateFailed, "from", r.state, "error", err)
	r.state = StateFailed
	return err
}

// Resolve returns up to topK candidates for q. Exact relational matches come
// first. A query with no relational anchor and no semantic neighbors returns
// an empty slice. Store errors abort the call unchanged apart from wrapping,
// so entities.ErrStoreUnavailable matches only what the adapters marked as
// unavailable. No partial result is returned.
func (s *ResolutionService) Resolve(ctx context.Context, q entities.Query, topK int) ([]entities.MatchCandidate, error) {
	if topK <= 0 {
		return nil, entities.NewValidationError("top_k", "must be positive, got %d", topK)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	run := &resolution{
		logger: s.logger.With("query", q.String(), "top_k", topK),
	}
	run.enter(StateStart)

	run.enter(StateResolveExact)
	anchors, err := s.resolveExact(ctx, q)
	if err != nil {
		return nil, run.fail(err)
	}
	run.anchors = anchors

	if len(anchors) > 0 {
		// Always re-render from the stored record.
		run.enter(StateEmbedAnchor)
		run.text = s.synthesizer.Render(anchors[0])
	} else {
		run.enter(StateQueryByRawText)
		run.text = s.synthesizer.RenderQuery(q.Value)
	}

	vector, err := s.embedder.Embed(ctx, run.text)
	if err != nil {
		return nil, run.fail(fmt.Errorf("embedding query text: %w", err))
	}

	run.enter(StateQueryVector)
	neighbors, err := s.index.QueryNearest(ctx, vector, topK+len(anchors))
	if err != nil {
		return nil, run.fail(fmt.Errorf("querying vector index: %w", err))
	}

	run.enter(StateRank)
	candidates := RankMatches(anchors, neighbors, topK)
	if err := s.fillNames(ctx, candidates); err != nil {
		return nil, run.fail(err)
	}

	run.enter(StateDone)
	run.logger.Info("resolved query", "exact", len(anchors), "candidates", len(candidates))
	return candidates, nil
}

// resolveExact looks for relational anchors. A miss is not an error.
func (s *ResolutionService) resolveExact(ctx context.Context, q entities.Query) ([]*entities.Entity, error) {
	var (
		anchors []*entities.Entity
		err     error
	)
	switch q.Kind {
	case entities.QueryISIN:
		anchors, err = s.resolver.ResolveByISIN(ctx, q.Value)
	case entities.QueryName:
		anchors, err = s.resolver.ResolveByName(ctx, q.Value)
	}
	if errors.Is(err, entities.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", q.Kind, err)
	}
	return anchors, nil
}

// fillNames sets legal names on semantic candidates from the relational
// store. A neighbor whose LEI has left the relational store keeps an empty
// name.
func (s *ResolutionService) fillNames(ctx context.Context, candidates []entities.MatchCandidate) error {
	var leis []string
	for _, c := range candidates {
		if c.MatchSource == entities.MatchSemantic {
			leis = append(leis, c.LEI)
		}
	}
	if len(leis) == 0 {
		return nil
	}

	names, err := s.resolver.LegalNames(ctx, leis)
	if err != nil {
		return fmt.Errorf("loading candidate names: %w", err)
	}
	for i := range candidates {
		if candidates[i].MatchSource == entities.MatchSemantic {
			candidates[i].LegalName = names[candidates[i].LEI]
		}
	}
	return nil
}
