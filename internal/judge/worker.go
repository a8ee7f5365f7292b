// Package judge implements the Judge Worker: the pipeline state
// machine that consumes job ids from the Message Bus Adapter, drives
// compilation and per-case execution through the Sandboxed Runner,
// and persists incremental results to the Job Store.
package judge

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/artifact"
	"github.com/codearena/judgecore/internal/mq"
	"github.com/codearena/judgecore/internal/sandbox"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

// Worker drains one queue, running the full judge pipeline for every
// delivered job id.
type Worker struct {
	jobs     *store.JobRepository
	static   config.Static
	bus      mq.Backend
	queue    string
	archiver artifact.Archiver
}

// New constructs a Worker. archiver may be nil, disabling artifact
// capture for non-Accepted cases.
func New(jobs *store.JobRepository, static config.Static, bus mq.Backend, queue string, archiver artifact.Archiver) *Worker {
	return &Worker{jobs: jobs, static: static, bus: bus, queue: queue, archiver: archiver}
}

// Run consumes deliveries until ctx is canceled. It never returns an
// error for a single job's failure — those are logged and the
// delivery is nacked for redelivery; Run itself returns only on a bus
// or context failure.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.bus.Consume(ctx, w.queue)
	if err != nil {
		return fmt.Errorf("judge: consume %s: %w", w.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, delivery)
		}
	}
}

func (w *Worker) handle(ctx context.Context, delivery mq.Delivery) {
	id64, err := strconv.ParseUint(string(delivery.Payload), 10, 32)
	if err != nil {
		log.Printf("judge: malformed job id payload %q: %v", delivery.Payload, err)
		_ = delivery.Nack(false)
		return
	}
	jobID := uint32(id64)

	if err := w.process(ctx, jobID); err != nil {
		log.Printf("judge: job %d: %v", jobID, err)
		_ = delivery.Nack(true)
		return
	}
	if err := delivery.Ack(); err != nil {
		log.Printf("judge: job %d: ack failed: %v", jobID, err)
	}
}

// process loads and drives jobID through the full pipeline. Acking
// happens only after the terminal write completes inside process, so
// the caller acks the bus delivery unconditionally on success here.
func (w *Worker) process(ctx context.Context, jobID uint32) error {
	job, err := w.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job: %w", err)
	}

	// Finished/Canceled jobs were already handled by a prior worker, or
	// were canceled before being picked up; nothing left to do. A job
	// still Running belongs to a worker that died mid-pipeline — reset
	// and reprocess it from scratch rather than leaving it stuck.
	if isTerminal(job.State) {
		return nil
	}

	language, ok := w.static.LanguageByName(job.Submission.Language)
	if !ok {
		return w.finishSystemError(ctx, jobID, "unknown language at judge time")
	}
	problem, ok := w.static.ProblemByID(job.Submission.ProblemID)
	if !ok {
		return w.finishSystemError(ctx, jobID, "unknown problem at judge time")
	}

	job, err = w.jobs.Update(ctx, jobID, func(j *types.Job) error {
		j.State = types.JobRunning
		j.Cases[0].Result = types.ResultRunning
		return nil
	})
	if err != nil {
		return fmt.Errorf("transitioning to Running: %w", err)
	}

	compileResult, cleanup, err := sandbox.Compile(ctx, language, job.Submission.SourceCode)
	if err != nil {
		return w.finishSystemError(ctx, jobID, "compile host failure: "+err.Error())
	}
	defer cleanup()

	if !compileResult.Ok {
		_, err := w.jobs.Update(ctx, jobID, func(j *types.Job) error {
			j.Cases[0].Result = types.ResultCompilationError
			j.Cases[0].Info = compileResult.Stderr
			j.Result = types.ResultCompilationError
			j.Score = 0
			j.State = types.JobFinished
			return nil
		})
		return err
	}

	job, err = w.jobs.Update(ctx, jobID, func(j *types.Job) error {
		j.Cases[0].Result = types.ResultCompilationSuccess
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording compilation success: %w", err)
	}

	for i, c := range problem.Cases {
		caseIndex := i + 1

		if _, err := w.jobs.Update(ctx, jobID, func(j *types.Job) error {
			j.Cases[caseIndex].Result = types.ResultRunning
			return nil
		}); err != nil {
			return fmt.Errorf("case %d: marking Running: %w", caseIndex, err)
		}

		caseResult := w.runCase(ctx, compileResult.ExecPath, c, problem.Kind, jobID, caseIndex)

		if _, err := w.jobs.Update(ctx, jobID, func(j *types.Job) error {
			j.Cases[caseIndex] = caseResult
			return nil
		}); err != nil {
			return fmt.Errorf("case %d: persisting result: %w", caseIndex, err)
		}
	}

	final, err := w.jobs.Update(ctx, jobID, func(j *types.Job) error {
		j.Result = reduceResult(j.Cases[1:])
		j.Score = sumScore(j.Cases[1:], problem.Cases)
		j.State = types.JobFinished
		return nil
	})
	if err != nil {
		return fmt.Errorf("finalizing job: %w", err)
	}
	_ = final
	return nil
}

// isTerminal reports whether a redelivered job needs no further work.
// Queueing and Running both fall through to a full (re)run: Running is
// the state a worker that died mid-pipeline leaves behind, and the bus
// redelivers its message to whichever worker picks it up next.
func isTerminal(state types.JobState) bool {
	return state == types.JobFinished || state == types.JobCanceled
}

func sumScore(cases []types.CaseResult, problemCases []types.Case) float64 {
	var total float64
	for i, c := range cases {
		if c.Result == types.ResultAccepted && i < len(problemCases) {
			total += problemCases[i].Score
		}
	}
	return total
}

// runCase executes and compares a single case, mapping sandbox
// outcomes to a CaseResult per spec §4.2's table. A host failure
// (e.g. a missing input file) yields System Error for this case only
// and does not abort the job.
func (w *Worker) runCase(ctx context.Context, execPath string, c types.Case, kind types.ProblemKind, jobID uint32, caseIndex int) types.CaseResult {
	result := types.CaseResult{ID: caseIndex}

	runResult, cleanup, err := sandbox.Run(ctx, execPath, c.InputPath, c.TimeLimitUS, c.MemoryLimitBytes)
	if err != nil {
		result.Result = types.ResultSystemError
		result.Info = "run host failure: " + err.Error()
		return result
	}
	defer cleanup()

	result.TimeUS = runResult.WallTimeUS
	result.MemoryBytes = runResult.PeakMemoryBytes

	switch {
	case runResult.Exit == sandbox.ExitTimeout:
		result.Result = types.ResultTimeLimitExceeded
		result.TimeUS = c.TimeLimitUS
		return result
	case c.MemoryLimitBytes > 0 && runResult.PeakMemoryBytes > c.MemoryLimitBytes:
		result.Result = types.ResultMemoryLimitExceeded
		return result
	case runResult.Exit == sandbox.ExitSignal:
		result.Result = types.ResultRuntimeError
		result.Info = fmt.Sprintf("terminated by signal %d", runResult.Signal)
		w.archive(ctx, jobID, caseIndex, runResult.StdoutPath)
		return result
	case runResult.Exit == sandbox.ExitNonzero:
		result.Result = types.ResultRuntimeError
		result.Info = fmt.Sprintf("exit code %d", runResult.Code)
		w.archive(ctx, jobID, caseIndex, runResult.StdoutPath)
		return result
	}

	cmp, err := sandbox.Compare(c.AnswerPath, runResult.StdoutPath, kind)
	if err != nil {
		result.Result = types.ResultSystemError
		result.Info = "compare host failure: " + err.Error()
		return result
	}
	if cmp.Accepted {
		result.Result = types.ResultAccepted
		return result
	}
	result.Result = types.ResultWrongAnswer
	result.Info = cmp.Info
	w.archive(ctx, jobID, caseIndex, runResult.StdoutPath)
	return result
}

func (w *Worker) archive(ctx context.Context, jobID uint32, caseIndex int, stdoutPath string) {
	if w.archiver == nil {
		return
	}
	if err := w.archiver.ArchiveCaseOutput(ctx, jobID, caseIndex, stdoutPath); err != nil {
		log.Printf("judge: job %d case %d: artifact archive failed: %v", jobID, caseIndex, err)
	}
}

func (w *Worker) finishSystemError(ctx context.Context, jobID uint32, reason string) error {
	_, err := w.jobs.Update(ctx, jobID, func(j *types.Job) error {
		j.Cases[0].Result = types.ResultSystemError
		j.Cases[0].Info = reason
		j.Result = types.ResultSystemError
		j.Score = 0
		j.State = types.JobFinished
		return nil
	})
	return err
}
