// Package pipeline turns pending community messages into reviewed
// documentation proposals. A run walks each stream window by window: it
// classifies a batch into threads, assembles conversations, retrieves related
// documentation, generates and reviews proposals, and commits each
// conversation atomically. A stream watermark advances only past windows in
// which every message completed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/pkg/events"
	"github.com/JaimeStill/scribe/pkg/lease"
)

const leaseName = "pipeline"

// RunResult counts the work done by a run.
type RunResult struct {
	Streams       int       `json:"streams"`
	Batches       int       `json:"batches"`
	Messages      int       `json:"messages"`
	Completed     int       `json:"completed"`
	Failed        int       `json:"failed"`
	Conversations int       `json:"conversations"`
	Discarded     int       `json:"discarded"`
	Proposals     int       `json:"proposals"`
	Rejected      int       `json:"rejected"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// BatchCompleted is published after every processed batch.
type BatchCompleted struct {
	TenantID      string        `json:"tenantId"`
	StreamID      string        `json:"streamId"`
	BatchID       string        `json:"batchId"`
	Messages      int           `json:"messages"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	Conversations int           `json:"conversations"`
	Proposals     int           `json:"proposals"`
	Rejected      int           `json:"rejected"`
	Duration      time.Duration `json:"durationNs"`
}

// Runner executes pipeline runs. Only one run proceeds at a time across every
// process sharing the Locker.
type Runner struct {
	rt *Runtime
}

// New creates a Runner. Optional collaborators left nil in rt fall back to
// a process-local lock and a discarding event publisher.
func New(rt *Runtime) *Runner {
	if rt.Logger == nil {
		rt.Logger = slog.New(slog.DiscardHandler)
	}
	rt.Logger = rt.Logger.With("system", "pipeline")
	if rt.Locker == nil {
		rt.Locker = lease.NewLocal()
	}
	if rt.Events == nil {
		rt.Events = events.Discard()
	}
	return &Runner{rt: rt}
}

// RunAll processes every stream holding pending messages.
func (r *Runner) RunAll(ctx context.Context) (*RunResult, error) {
	return r.run(ctx, func(ctx context.Context, res *RunResult) error {
		streams, err := r.rt.Messages.PendingStreams(ctx)
		if err != nil {
			return fmt.Errorf("list pending streams: %w", err)
		}

		var errs []error
		for _, stream := range streams {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				break
			}
			if err := r.runStream(ctx, stream, res); err != nil {
				r.rt.Logger.ErrorContext(ctx, "stream run failed", "stream", stream, "error", err)
				errs = append(errs, fmt.Errorf("stream %s: %w", stream, err))
			}
		}
		return errors.Join(errs...)
	})
}

// RunStream processes a single stream.
func (r *Runner) RunStream(ctx context.Context, streamID string) (*RunResult, error) {
	return r.run(ctx, func(ctx context.Context, res *RunResult) error {
		return r.runStream(ctx, streamID, res)
	})
}

func (r *Runner) run(ctx context.Context, fn func(context.Context, *RunResult) error) (*RunResult, error) {
	release, err := r.rt.Locker.TryAcquire(ctx, leaseName)
	if err != nil {
		if errors.Is(err, lease.ErrHeld) {
			r.rt.Metrics.run("busy")
			return nil, ErrRunInProgress
		}
		return nil, fmt.Errorf("acquire run lease: %w", err)
	}
	defer release()

	res := &RunResult{StartedAt: r.rt.now()}
	r.rt.Logger.InfoContext(ctx, "run started")

	err = fn(ctx, res)
	res.FinishedAt = r.rt.now()

	result := "ok"
	if err != nil || res.Failed > 0 {
		result = "partial"
	}
	r.rt.Metrics.run(result)

	r.rt.Logger.InfoContext(ctx, "run finished",
		"streams", res.Streams,
		"batches", res.Batches,
		"messages", res.Messages,
		"completed", res.Completed,
		"failed", res.Failed,
		"proposals", res.Proposals,
		"rejected", res.Rejected,
		"duration", res.FinishedAt.Sub(res.StartedAt),
	)
	return res, err
}

// runStream processes windows until the stream is drained or a window fails.
func (r *Runner) runStream(ctx context.Context, stream string, res *RunResult) error {
	logger := r.rt.Logger.With("stream", stream)
	res.Streams++

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wm, err := r.rt.Watermarks.Get(ctx, stream)
		if err != nil {
			return fmt.Errorf("read watermark: %w", err)
		}

		first, err := r.rt.Messages.EarliestPending(ctx, stream, wm)
		if errors.Is(err, messages.ErrNotFound) {
			logger.DebugContext(ctx, "stream drained", "watermark", wm)
			return nil
		}
		if err != nil {
			return fmt.Errorf("find earliest pending message: %w", err)
		}

		now := r.rt.now()
		w, ok := PlanWindow(first.Timestamp, now, r.rt.Config.Window())
		if !ok {
			logger.InfoContext(ctx, "pending messages are ahead of now, stopping",
				"earliest", first.Timestamp,
				"now", now,
			)
			return nil
		}

		failed, err := r.runWindow(ctx, stream, w, res)
		if err != nil {
			return err
		}
		if failed > 0 {
			logger.WarnContext(ctx, "window incomplete, watermark held",
				"start", w.Start,
				"end", w.End,
				"failed", failed,
			)
			return nil
		}

		now = r.rt.now()
		if err := r.rt.Watermarks.Advance(ctx, stream, w.End, now); err != nil {
			return fmt.Errorf("advance watermark: %w", err)
		}
		r.rt.Metrics.lag(stream, now.Sub(w.End))
		logger.InfoContext(ctx, "watermark advanced", "to", w.End)
	}
}

// runWindow pages through the pending messages of w one batch at a time and
// returns the number of messages that failed. Processing stops at the first
// batch with failures since later pages cannot move the watermark.
func (r *Runner) runWindow(ctx context.Context, stream string, w Window, res *RunResult) (int, error) {
	size := r.rt.Config.MaxBatchSize

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		batch, err := r.rt.Messages.FetchPending(ctx, stream, w.Start, w.End, size)
		if err != nil {
			return 0, err
		}
		if len(batch) == 0 {
			return 0, nil
		}

		out := r.processBatch(ctx, stream, batch)
		res.Batches++
		res.Messages += len(batch)
		res.Completed += out.completed
		res.Failed += out.failed
		res.Conversations += out.conversations
		res.Discarded += out.discarded
		res.Proposals += out.proposals
		res.Rejected += out.rejected

		if out.failed > 0 {
			return out.failed, nil
		}
		if out.completed == 0 {
			return len(batch), nil
		}
		if len(batch) < size {
			return 0, nil
		}
	}
}

type batchOutcome struct {
	completed     int
	failed        int
	conversations int
	discarded     int
	proposals     int
	rejected      int
}

// processBatch runs one batch through the batch graph. Failures are
// contained: the messages involved stay PENDING and their classification rows
// are removed.
func (r *Runner) processBatch(ctx context.Context, stream string, batch []messages.Message) batchOutcome {
	batchID := ulid.Make().String()
	run := &batchRun{
		stream:  stream,
		batchID: batchID,
		batch:   batch,
		logger:  r.rt.Logger.With("stream", stream, "batch", batchID),
		started: time.Now(),
	}

	graph, err := r.batchGraph()
	if err == nil {
		_, err = graph.Execute(ctx, state.New(nil).Set(keyBatchRun, run))
	}
	if err != nil {
		run.logger.ErrorContext(ctx, "batch graph failed", "error", err)
		switch {
		case !run.classified:
			return batchOutcome{failed: len(batch)}
		case !run.routed:
			var ids []string
			for i := range run.convs {
				ids = append(ids, run.convs[i].MessageIDs()...)
			}
			r.purge(ctx, run.logger, ids)
			run.out.failed += len(ids)
		}
	}
	return run.out
}

// classifyBatch classifies the batch, stores one record per message and
// completes the messages the classifier left out.
func (r *Runner) classifyBatch(ctx context.Context, run *batchRun) {
	rt := r.rt
	logger := run.logger
	failAll := batchOutcome{failed: len(run.batch)}

	prior, err := rt.Messages.FetchContext(ctx, run.stream, run.batch[0].Timestamp, rt.Config.ContextMessages)
	if err != nil {
		logger.ErrorContext(ctx, "context fetch failed", "error", err)
		run.out = failAll
		return
	}

	cls, err := classify(ctx, rt, run.batch, prior)
	if err != nil {
		logger.ErrorContext(ctx, "batch classification failed", "error", err)
		run.out = failAll
		return
	}

	archive(ctx, rt, Exchange{
		Stage:    prompts.StageClassify,
		StreamID: run.stream,
		BatchID:  run.batchID,
		Model:    cls.Model,
		System:   cls.System,
		User:     cls.User,
		Response: cls.Raw,
	}, "batch")

	convs := Assemble(cls.Threads, run.batch, logger)
	records := Records(cls.Threads, convs, run.batchID, cls.Model)
	if err := rt.Classifications.Upsert(ctx, records); err != nil {
		logger.ErrorContext(ctx, "classification upsert failed", "error", err)
		run.out = failAll
		return
	}

	var unassigned []string
	for _, t := range cls.Threads {
		if t.Synthetic {
			unassigned = append(unassigned, t.MessageIDs...)
		}
	}
	if len(unassigned) > 0 {
		logger.WarnContext(ctx, "messages left unclassified", "count", len(unassigned))
		if err := rt.Messages.MarkCompleted(ctx, unassigned); err != nil {
			logger.ErrorContext(ctx, "completing unclassified messages failed", "error", err)
			r.purge(ctx, logger, unassigned)
			run.out.failed += len(unassigned)
		} else {
			run.out.completed += len(unassigned)
		}
	}

	run.convs = convs
	run.classified = true
}

// routeBatch processes the conversations of a classified batch in parallel.
// Without a ruleset, conversations that need review fail while discarded
// ones still complete.
func (r *Runner) routeBatch(ctx context.Context, run *batchRun) {
	rt := r.rt
	logger := run.logger
	convs := run.convs

	rs, rsErr := rt.Rulesets.Get(ctx, rt.Tenant.ID)
	if rsErr != nil {
		logger.ErrorContext(ctx, "ruleset load failed", "error", rsErr)
	}

	results := make([]convOutcome, len(convs))

	var g errgroup.Group
	g.SetLimit(max(rt.Config.Concurrency, 1))
	for i := range convs {
		g.Go(func() error {
			if rsErr != nil && convs[i].Valuable() {
				results[i] = convOutcome{route: "failed", err: fmt.Errorf("load ruleset: %w", rsErr)}
				return nil
			}
			results[i] = processConversation(ctx, rt, run.batchID, &convs[i], rs)
			return nil
		})
	}
	_ = g.Wait()

	var failedIDs []string
	for i, res := range results {
		c := &convs[i]
		rt.Metrics.conversation(res.route)

		if res.err != nil {
			logger.ErrorContext(ctx, "conversation failed",
				"conversation", c.ID,
				"messages", len(c.Messages),
				"error", res.err,
			)
			failedIDs = append(failedIDs, c.MessageIDs()...)
			continue
		}

		run.out.completed += len(c.Messages)
		run.out.conversations++
		run.out.proposals += res.proposals
		run.out.rejected += res.rejected
		if res.route == "discarded" {
			run.out.discarded++
		}
	}

	if len(failedIDs) > 0 {
		r.purge(ctx, logger, failedIDs)
		run.out.failed += len(failedIDs)
	}
	run.routed = true
}

// finishBatch records metrics and announces the batch.
func (r *Runner) finishBatch(ctx context.Context, run *batchRun) {
	rt := r.rt
	out := run.out
	elapsed := time.Since(run.started)

	rt.Metrics.message("completed", out.completed)
	rt.Metrics.message("failed", out.failed)
	rt.Metrics.batch(run.stream, elapsed)

	publish(ctx, rt, SubjectBatchCompleted, BatchCompleted{
		TenantID:      rt.Tenant.ID,
		StreamID:      run.stream,
		BatchID:       run.batchID,
		Messages:      len(run.batch),
		Completed:     out.completed,
		Failed:        out.failed,
		Conversations: out.conversations,
		Proposals:     out.proposals,
		Rejected:      out.rejected,
		Duration:      elapsed,
	})

	run.logger.InfoContext(ctx, "batch processed",
		"messages", len(run.batch),
		"completed", out.completed,
		"failed", out.failed,
		"conversations", out.conversations,
		"proposals", out.proposals,
	)
}

// purge removes classification rows of messages that stay PENDING so the
// next run classifies them afresh.
func (r *Runner) purge(ctx context.Context, logger *slog.Logger, ids []string) {
	if len(ids) == 0 {
		return
	}
	n, err := r.rt.Classifications.DeleteByMessages(ctx, ids)
	if err != nil {
		logger.ErrorContext(ctx, "classification purge failed", "messages", len(ids), "error", err)
		return
	}
	logger.InfoContext(ctx, "classifications purged", "rows", n)
}
