// Package variants fans one email request out into several independently
// composed drafts. Variants run in parallel, fail independently, and are
// streamed to the caller as each one finishes.
package variants

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/icebreaker-agent/internal/templates"
	"github.com/jonathan/icebreaker-agent/internal/types"
)

// DefaultCount is the number of variants generated when the caller does not
// ask for a specific count.
const DefaultCount = 3

// duplicateWarning marks a variant whose body stayed byte-identical to a
// sibling even after a regeneration attempt.
const duplicateWarning = "variant body identical to a sibling after regeneration"

// variationHints steer sibling drafts apart. Hints cycle when the requested
// count exceeds the list.
var variationHints = []string{
	"Variation: open by stating who the sender is before mentioning the role.",
	"Variation: open with the single most impressive fact about the sender, then introduce them.",
	"Variation: open by naming what drew the sender to this company specifically.",
	"Variation: open with a question the recipient likely cares about, then answer it.",
	"Variation: open by connecting the sender's current work to the team's domain.",
}

// Composer is the single-draft composition dependency.
type Composer interface {
	ComposeWithHint(ctx context.Context, req *types.EmailRequest, points *types.RankedTalkingPoints, tmpl *templates.StructuralTemplate, hint string) (*types.EmailDraft, error)
}

// Variant is one streamed generation result. Exactly one of Draft and Err is
// set.
type Variant struct {
	Index int
	Draft *types.EmailDraft
	Err   error
}

// Generator produces draft variants through a Composer.
type Generator struct {
	composer Composer
	logger   *zap.Logger
}

// NewGenerator returns a Generator. A nil logger is replaced with a no-op.
func NewGenerator(composer Composer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{composer: composer, logger: logger}
}

// Generate composes count variants in parallel and streams each as it
// finishes; the channel closes once all variants are done. A failed variant
// is emitted with its error and never blocks its siblings. Bodies that come
// out byte-identical to an already-finished sibling get one regeneration;
// a persistent duplicate ships with a warning.
func (g *Generator) Generate(ctx context.Context, req *types.EmailRequest, points *types.RankedTalkingPoints, tmpl *templates.StructuralTemplate, count int) <-chan Variant {
	if count <= 0 {
		count = DefaultCount
	}

	out := make(chan Variant, count)
	seen := newBodySet()

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		index := i
		group.Go(func() error {
			out <- g.generateOne(groupCtx, req, points, tmpl, index, count, seen)
			return nil
		})
	}

	go func() {
		_ = group.Wait()
		close(out)
	}()
	return out
}

func (g *Generator) generateOne(ctx context.Context, req *types.EmailRequest, points *types.RankedTalkingPoints, tmpl *templates.StructuralTemplate, index, count int, seen *bodySet) Variant {
	hint := variationHints[index%len(variationHints)]

	draft, err := g.composer.ComposeWithHint(ctx, req, points, tmpl, hint)
	if err != nil {
		g.logger.Warn("variant generation failed",
			zap.Int("variant", index),
			zap.Error(err))
		return Variant{Index: index, Err: fmt.Errorf("variant %d: %w", index, err)}
	}

	if seen.add(draft.BodyText()) {
		return Variant{Index: index, Draft: draft}
	}

	// One retry with a different hint against the duplicate.
	retryHint := variationHints[(index+count)%len(variationHints)] +
		" Do not repeat the wording of your previous draft."
	retry, err := g.composer.ComposeWithHint(ctx, req, points, tmpl, retryHint)
	if err == nil && seen.add(retry.BodyText()) {
		return Variant{Index: index, Draft: retry}
	}
	if err == nil {
		draft = retry
	}

	g.logger.Warn("duplicate variant body",
		zap.Int("variant", index),
		zap.String("draft_id", draft.ID))
	draft.Warnings = append(draft.Warnings, duplicateWarning)
	return Variant{Index: index, Draft: draft}
}

// bodySet tracks body texts already emitted, shared across variant
// goroutines.
type bodySet struct {
	mu     sync.Mutex
	bodies map[string]struct{}
}

func newBodySet() *bodySet {
	return &bodySet{bodies: make(map[string]struct{})}
}

// add records the body and reports whether it was new.
func (s *bodySet) add(body string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.bodies[body]; dup {
		return false
	}
	s.bodies[body] = struct{}{}
	return true
}
