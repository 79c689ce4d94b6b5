package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"locline/internal/domain"
	"locline/internal/ports"
	"locline/internal/usecase/translator"
)

// ErrRunActive is returned by Start while a previous run is still going.
var ErrRunActive = errors.New("a run is already active")

// DefaultOutputName is used when the config carries no output path; the
// file lands next to the input.
const DefaultOutputName = "tran.txt"

const settingsKeyRunConfig = "run_config"

type Deps struct {
	Translator *translator.Service
	Parser     ports.Parser
	Exporter   ports.Exporter
	Runs       ports.RunRepository      // optional
	Settings   ports.SettingsRepository // optional
}

// Runner orchestrates one translation run at a time: it loads the file,
// partitions the lines across workers, and writes the output once every
// worker reached a terminal state. Nothing is written when a stop was
// requested.
type Runner struct {
	d   Deps
	log *slog.Logger
	em  ports.EventEmitter

	// stop is the single shared cancellation signal, polled by every
	// worker before each batch. It is never awaited.
	stop atomic.Bool

	mu      sync.Mutex
	active  bool
	runID   string
	done    chan struct{}
	lastErr error
}

func NewRunner(d Deps, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{d: d, log: log}
}

func (r *Runner) SetEmitter(em ports.EventEmitter) { r.em = em }

// Start begins a run and returns immediately with its ID. File problems
// surface here as errors; everything after setup is reported only through
// progress events.
func (r *Runner) Start(cfg domain.RunConfig, path string) (string, error) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return "", ErrRunActive
	}
	r.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	pr, err := r.d.Parser.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse input: %w", err)
	}

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return "", ErrRunActive
	}
	id := uuid.NewString()
	r.active = true
	r.runID = id
	r.done = make(chan struct{})
	r.lastErr = nil
	r.stop.Store(false)
	r.mu.Unlock()

	store := NewLineStore(pr.Lines)
	items := pr.Lines
	if pr.HasHeader {
		items = items[1:]
	}
	chunks := partition(items, cfg.Workers)
	output := cfg.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(path), DefaultOutputName)
	}

	ctx := context.Background()
	if r.d.Settings != nil {
		if b, err := json.Marshal(cfg); err == nil {
			_ = r.d.Settings.Set(ctx, settingsKeyRunConfig, string(b))
		}
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if r.d.Runs != nil {
		_ = r.d.Runs.Create(ctx, &domain.Run{
			ID: id, File: path, Output: output, Model: cfg.Model,
			Status: "running", Total: total,
		})
	}
	r.log.Info("run started", "run_id", id, "file", path,
		"lines", store.Len(), "workers", len(chunks), "model", cfg.Model)

	go r.run(id, cfg, store, chunks, output, total)
	return id, nil
}

// Stop requests a cooperative stop. Workers honor it at the next batch
// boundary; a batch already in flight completes first. Idempotent, no-op
// when nothing is running.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.stop.Store(true)
	r.log.Info("stop requested", "run_id", r.runID)
}

// Wait blocks until the current run reaches a terminal state and returns
// the output-write error, if any. Returns immediately when idle.
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Status reports the current run ID and whether it is still active.
func (r *Runner) Status() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID, r.active
}

func (r *Runner) run(id string, cfg domain.RunConfig, store *LineStore, chunks [][]domain.Line, output string, total int) {
	ctx := context.Background()
	var wg sync.WaitGroup
	var doneCount atomic.Int64
	for i, chunk := range chunks {
		wg.Add(1)
		go func(workerID int, chunk []domain.Line) {
			defer wg.Done()
			r.runWorker(ctx, workerID, chunk, cfg, store, &doneCount)
		}(i+1, chunk)
	}
	wg.Wait()

	status := "done"
	var runErr error
	if r.stop.Load() {
		// Incomplete runs are discarded: no file is written.
		status = "stopped"
		r.log.Info("run stopped, output discarded", "run_id", id, "done", doneCount.Load(), "total", total)
	} else {
		data, err := r.d.Exporter.Export(store.Lines())
		if err == nil {
			err = os.WriteFile(output, data, 0o644)
		}
		if err != nil {
			status = "failed"
			runErr = fmt.Errorf("write output: %w", err)
			r.log.Error("write output", "run_id", id, "output", output, "error", err)
		} else {
			r.log.Info("run finished", "run_id", id, "output", output, "lines", store.Len())
		}
	}
	if r.d.Runs != nil {
		_ = r.d.Runs.UpdateProgress(ctx, id, int(doneCount.Load()), total, status)
	}

	r.mu.Lock()
	r.active = false
	r.lastErr = runErr
	close(r.done)
	r.mu.Unlock()
}

func (r *Runner) runWorker(ctx context.Context, workerID int, chunk []domain.Line, cfg domain.RunConfig, store *LineStore, runDone *atomic.Int64) {
	total := len(chunk)
	first, last := chunk[0].Index, chunk[total-1].Index
	r.emit(domain.ProgressEvent{WorkerID: workerID, Total: total,
		Message: fmt.Sprintf("Ready. Range: %d-%d", first, last)})

	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	delay := time.Duration(cfg.Delay * float64(time.Second))

	processed := 0
	for i := 0; i < total; i += batchSize {
		if r.stop.Load() {
			r.emit(domain.ProgressEvent{WorkerID: workerID, Done: processed, Total: total, Message: "Stopped."})
			return
		}
		end := i + batchSize
		if end > total {
			end = total
		}
		batch := chunk[i:end]
		texts := make([]string, len(batch))
		for j, l := range batch {
			texts[j] = l.Text
		}

		results := r.d.Translator.TranslateBatch(ctx, texts, cfg, func(msg string, appendFlag bool) {
			r.emit(domain.ProgressEvent{WorkerID: workerID, Done: processed, Total: total, Message: msg, Append: appendFlag})
		})
		for j, l := range batch {
			store.Set(l.Index, results[j])
		}
		processed += len(batch)
		runDone.Add(int64(len(batch)))
		r.emit(domain.ProgressEvent{WorkerID: workerID, Done: processed, Total: total})

		if delay > 0 && end < total {
			time.Sleep(delay)
		}
	}
	r.emit(domain.ProgressEvent{WorkerID: workerID, Done: total, Total: total, Message: "Finished."})
}

func (r *Runner) emit(ev domain.ProgressEvent) {
	if r.em != nil {
		r.em.Emit(ev)
	}
}
