// Package pipeline provides the high-level orchestration for email
// generation: validate and normalize the request, rank talking points,
// select the structural template, and fan out draft composition.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/icebreaker-agent/internal/compose"
	"github.com/jonathan/icebreaker-agent/internal/db"
	"github.com/jonathan/icebreaker-agent/internal/enrichment"
	"github.com/jonathan/icebreaker-agent/internal/llm"
	"github.com/jonathan/icebreaker-agent/internal/logger"
	"github.com/jonathan/icebreaker-agent/internal/matching"
	"github.com/jonathan/icebreaker-agent/internal/normalize"
	"github.com/jonathan/icebreaker-agent/internal/observability"
	"github.com/jonathan/icebreaker-agent/internal/templates"
	"github.com/jonathan/icebreaker-agent/internal/types"
	"github.com/jonathan/icebreaker-agent/internal/variants"
)

// fallbackWarning marks drafts produced through the simple-structure
// fallback after the matcher found no relevant overlap.
const fallbackWarning = "no relevant overlap between profile and posting; fell back to simple email structure"

// Progress step names.
const (
	StepNormalized = "request_normalized"
	StepEnriched   = "context_enriched"
	StepMatched    = "talking_points_ranked"
	StepTemplate   = "template_selected"
	StepDraft      = "draft_composed"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Request       *types.EmailRequest
	VariantCount  int
	APIKey        string
	DatabaseURL   string
	EnrichmentURL string
	Timeout       time.Duration
	Verbose       bool
	Logger        *zap.Logger
	OnProgress    ProgressCallback

	// Client overrides the default Gemini client. Used by tests and by
	// callers that manage their own client lifecycle.
	Client llm.Client

	// OnDraft is invoked for each finished variant, in completion order,
	// before the full result is returned.
	OnDraft func(variant int, draft *types.EmailDraft)
}

// Result holds everything one pipeline run produced.
type Result struct {
	RunID         string
	Drafts        []*types.EmailDraft // ordered by completion
	TalkingPoints *types.RankedTalkingPoints
	VariantErrors []error
}

// Run executes the full generation pipeline for one request.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	printer := observability.NewPrinter(os.Stdout)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if opts.Request == nil {
		return nil, fmt.Errorf("request is required")
	}
	req := *opts.Request
	req.ApplyDefaults()

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	// Template selection runs before any LLM work so unsupported type/tone
	// combinations fail fast.
	tmpl, err := templates.Select(req.EmailType, req.Tone)
	if err != nil {
		return nil, err
	}

	req.Sender, err = normalize.Profile(req.Sender)
	if err != nil {
		return nil, fmt.Errorf("sender profile rejected: %w", err)
	}
	req.Job, err = normalize.Posting(req.Job)
	if err != nil {
		return nil, fmt.Errorf("job posting rejected: %w", err)
	}
	req.Receiver, err = normalize.Contact(req.Receiver)
	if err != nil {
		return nil, fmt.Errorf("receiver contact rejected: %w", err)
	}

	log.Info("request normalized",
		zap.String("company", req.Job.Company),
		zap.String("job_title", req.Job.JobTitle),
		zap.String("email_type", string(req.EmailType)),
		zap.String("tone", string(req.Tone)))
	emitProgress(&opts, StepNormalized,
		fmt.Sprintf("Normalized request for %s at %s", req.Job.JobTitle, req.Job.Company), runID, nil)
	if opts.Verbose {
		printer.PrintRequest(&req)
	}

	// Optional database persistence. An unreachable database is a warning,
	// never a failed run.
	var database *db.DB
	var dbRunID uuid.UUID
	if opts.DatabaseURL != "" {
		database, err = db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			log.Warn("database unavailable, continuing without persistence", zap.Error(err))
			database = nil
		} else {
			defer database.Close()
		}
	}

	// Contextual requests without supplied context get a best-effort
	// enrichment lookup. Failures degrade to empty context.
	if req.EmailType == types.EmailTypeContextual && req.Context.IsEmpty() {
		client := enrichment.NewClient(opts.EnrichmentURL, enrichment.DefaultTimeout, log)
		req.Context = client.Gather(ctx, &req)
		emitProgress(&opts, StepEnriched,
			fmt.Sprintf("Gathered %d context snippets", len(req.Context.Snippets())), runID, nil)
	}

	// Rank talking points. NoRelevantOverlap is not fatal: the declared
	// email type is preserved but the drafts are built on the simple
	// structure, each carrying a warning.
	fellBack := false
	points, err := matching.Match(&req.Sender, &req.Job, req.EmailType, req.Context)
	if err != nil {
		if !errors.Is(err, matching.ErrNoRelevantOverlap) {
			return nil, err
		}
		log.Warn("no relevant overlap, falling back to simple structure")
		fellBack = true
		points = &types.RankedTalkingPoints{}
		tmpl, err = templates.Select(types.EmailTypeSimple, req.Tone)
		if err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		printer.PrintTalkingPoints(points)
	}
	emitProgress(&opts, StepMatched,
		fmt.Sprintf("Ranked %d talking points", len(points.Points)), runID, points)
	emitProgress(&opts, StepTemplate,
		fmt.Sprintf("Selected %s/%s template", tmpl.EmailType, tmpl.Tone), runID, nil)

	client := opts.Client
	if client == nil {
		gemini, cerr := llm.NewClient(ctx, llm.DefaultConfig(), opts.APIKey)
		if cerr != nil {
			return nil, fmt.Errorf("failed to create generation client: %w", cerr)
		}
		client = llm.NewRetryingClient(gemini, 3, time.Second)
		defer func() { _ = client.Close() }()
	}

	count := opts.VariantCount
	if count <= 0 {
		count = variants.DefaultCount
	}

	if database != nil {
		dbRunID, err = database.CreateRun(ctx, req.Job.Company, req.Job.JobTitle, req.EmailType, req.Tone, count)
		if err != nil {
			log.Warn("failed to create database run", zap.Error(err))
			database = nil
		}
	}

	result := &Result{RunID: runID, TalkingPoints: points}
	generator := variants.NewGenerator(compose.NewComposer(client), log)

	for v := range generator.Generate(ctx, &req, points, tmpl, count) {
		if v.Err != nil {
			log.Warn("variant failed", zap.Int("variant", v.Index), zap.Error(v.Err))
			result.VariantErrors = append(result.VariantErrors, v.Err)
			continue
		}

		draft := v.Draft
		if fellBack {
			draft.EmailType = req.EmailType
			draft.Warnings = append(draft.Warnings, fallbackWarning)
		}

		log.Info("draft composed",
			zap.Int("variant", v.Index),
			zap.String("draft_id", draft.ID),
			zap.Int("word_count", draft.WordCount),
			zap.String("body_preview", logger.TruncateForLog(draft.BodyText(), 80)))
		emitProgress(&opts, StepDraft,
			fmt.Sprintf("Composed variant %d (%d words)", v.Index+1, draft.WordCount), runID, draft)
		if opts.Verbose {
			printer.PrintDraft(v.Index, draft)
		}
		if opts.OnDraft != nil {
			opts.OnDraft(v.Index, draft)
		}
		if database != nil {
			if derr := database.SaveDraft(ctx, dbRunID, v.Index, draft); derr != nil {
				log.Warn("failed to persist draft", zap.Int("variant", v.Index), zap.Error(derr))
			}
		}

		result.Drafts = append(result.Drafts, draft)
	}

	sort.Slice(result.Drafts, func(i, j int) bool {
		return result.Drafts[i].GeneratedAt.Before(result.Drafts[j].GeneratedAt)
	})

	if database != nil {
		status := "completed"
		if len(result.VariantErrors) > 0 {
			status = "completed_with_errors"
		}
		if cerr := database.CompleteRun(ctx, dbRunID, status); cerr != nil {
			log.Warn("failed to complete database run", zap.Error(cerr))
		}
	}

	if len(result.Drafts) == 0 {
		if len(result.VariantErrors) > 0 {
			return nil, fmt.Errorf("all %d variants failed: %w", count, result.VariantErrors[0])
		}
		return nil, fmt.Errorf("no drafts produced")
	}
	return result, nil
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, message, runID string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:    step,
			Message: message,
			RunID:   runID,
			Content: content,
		})
	}
}
