// Package watch runs the crawl on a cron schedule and writes each result to a
// YAML snapshot file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

const snapshotTimeLayout = "20060102T150405"

// ErrAlreadyRunning is returned by RunOnce while a previous crawl is active.
var ErrAlreadyRunning = errors.New("crawl already running")

// Runner executes one crawl.
type Runner interface {
	Run(ctx context.Context, req aggregator.Request) (*aggregator.Result, error)
}

// Snapshot is the file written after each crawl.
type Snapshot struct {
	CrawlID   string              `yaml:"crawl_id"`
	Terms     []string            `yaml:"terms"`
	StartedAt string              `yaml:"started_at"`
	Duration  string              `yaml:"duration"`
	Count     int                 `yaml:"count"`
	Items     domain.LabeledItems `yaml:"items"`
}

// Watcher schedules crawls.
type Watcher struct {
	runner Runner
	req    aggregator.Request
	dir    string
	log    logger.Logger

	parser  cron.Parser
	running sync.Mutex
}

// New creates a Watcher writing snapshots into dir.
func New(runner Runner, req aggregator.Request, dir string, log logger.Logger) (*Watcher, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	return &Watcher{
		runner: runner,
		req:    req,
		dir:    dir,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}, nil
}

// Start runs a crawl immediately, then on every tick of spec until ctx is done.
func (w *Watcher) Start(ctx context.Context, spec string) error {
	schedule, err := w.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", spec, err)
	}

	c := cron.New(cron.WithParser(w.parser))
	c.Schedule(schedule, cron.FuncJob(func() { w.tick(ctx) }))

	w.log.Info("Watch started",
		logger.String("schedule", spec),
		logger.String("next_run", schedule.Next(time.Now()).Format(time.DateTime)),
		logger.String("output_dir", w.dir),
	)

	w.tick(ctx)
	c.Start()
	<-ctx.Done()

	// Wait for an in-flight crawl to observe cancellation.
	<-c.Stop().Done()
	w.log.Info("Watch stopped")
	return nil
}

func (w *Watcher) tick(ctx context.Context) {
	path, err := w.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		w.log.Warn("Skipping tick, previous crawl still running")
	case err != nil:
		w.log.Error("Scheduled crawl failed", logger.Error(err))
	default:
		w.log.Info("Snapshot written", logger.String("path", path))
	}
}

// RunOnce performs one crawl and writes its snapshot, returning the file path.
func (w *Watcher) RunOnce(ctx context.Context) (string, error) {
	if !w.running.TryLock() {
		return "", ErrAlreadyRunning
	}
	defer w.running.Unlock()

	res, err := w.runner.Run(ctx, w.req)
	if err != nil {
		return "", fmt.Errorf("run crawl: %w", err)
	}
	return w.write(res)
}

func (w *Watcher) write(res *aggregator.Result) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	snap := Snapshot{
		CrawlID:   res.CrawlID,
		Terms:     res.Terms,
		StartedAt: res.StartedAt.Format(time.RFC3339),
		Duration:  res.Duration.Round(time.Millisecond).String(),
		Count:     len(res.Items),
		Items:     domain.LabeledItems(res.Items),
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("%s_%s.yaml", res.StartedAt.Format(snapshotTimeLayout), res.CrawlID)
	path := filepath.Join(w.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
