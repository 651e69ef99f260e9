package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/blockdoc/internal/config"
	"github.com/dgallion1/blockdoc/internal/generate"
	"github.com/dgallion1/blockdoc/internal/session"
)

// Worker processes generation jobs one at a time.
type Worker struct {
	gen      generate.Generator
	sessions *session.Store
	log      *slog.Logger
	cfg      config.Config
	wait     func(attempt int) time.Duration
}

// Process generates content for job and applies it to the job's session as
// one insertion after the AI block.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "session_id", job.SessionID, "block_id", job.BlockID)

	if job.Cancelled() {
		job.SetStatus(StatusDiscarded, "cancelled")
		log.Info("generation discarded before start")
		return
	}

	// Phase 1: Generate
	job.SetStatus(StatusGenerating, "generating")
	req := generate.Request{
		System:    generate.SystemPrompt,
		Prompt:    generate.BuildPrompt(job.prompt, job.context),
		MaxTokens: w.cfg.MaxOutputTokens,
	}
	var answer string
	err := retry(ctx, w.wait, func() error {
		job.IncrAttempts()
		var err error
		answer, err = w.gen.Generate(ctx, req)
		return err
	}, func(attempt int, err error) {
		log.Warn("retryable generation error", "attempt", attempt, "error", err)
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		job.Fail("generating", err)
		return
	}

	// Phase 2: Convert
	sess := w.sessions.Get(job.SessionID)
	if sess == nil {
		log.Warn("session gone before apply")
		job.SetStatus(StatusStale, "session_gone")
		return
	}
	frags, err := generate.Blocks(sess.Codec(), answer)
	if err != nil {
		log.Error("convert failed", "error", err)
		job.Fail("converting", err)
		return
	}

	// Phase 3: Apply
	if !job.claim() {
		log.Info("generation discarded after cancel")
		return
	}
	if err := sess.ApplyGeneration(job.BlockID, frags); err != nil {
		if errors.Is(err, session.ErrBlockNotFound) {
			log.Warn("ai block removed before apply")
			job.SetStatus(StatusStale, "block_gone")
			return
		}
		log.Error("apply failed", "error", err)
		job.Fail("applying", err)
		return
	}
	job.SetApplied(len(frags))
	log.Info("generation applied", "blocks", len(frags), "attempts", job.Snapshot().Attempts)
}
