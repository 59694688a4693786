package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bundledomain "github.com/smallbiznis/chargeflow/internal/bundle/domain"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
	"github.com/smallbiznis/chargeflow/internal/config"
	"github.com/smallbiznis/chargeflow/internal/document"
	obslogger "github.com/smallbiznis/chargeflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/chargeflow/internal/observability/metrics"
	"github.com/smallbiznis/chargeflow/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	bundleExt = ".xml"

	// rejectedDir holds bundles that can never be processed, under the archive dir.
	rejectedDir = "rejected"

	statusProcessed = "processed"
	statusRejected  = "rejected"
	statusFailed    = "failed"
)

var (
	ErrInvalidConfig = errors.New("invalid_ingest_config")
	ErrBundleLocked  = errors.New("bundle_locked")
	ErrBundleGone    = errors.New("bundle_gone")
)

type Params struct {
	fx.In

	Config  config.Config
	Service bundledomain.Service
	Log     *zap.Logger
	Metrics *obsmetrics.IngestMetrics `optional:"true"`
	Locker  *Locker                   `optional:"true"`
}

// Worker sweeps the inbox and hands every bundle file to the orchestrator.
// Bundles run concurrently up to the configured worker count; operations inside
// one bundle stay sequential.
type Worker struct {
	inboxDir   string
	archiveDir string
	workers    int
	interval   time.Duration
	lockTTL    time.Duration

	svc     bundledomain.Service
	log     *zap.Logger
	metrics *obsmetrics.IngestMetrics
	locker  bundleLocker
}

func NewWorker(p Params) (*Worker, error) {
	if p.Service == nil || p.Log == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.Ingest
	if strings.TrimSpace(cfg.InboxDir) == "" || strings.TrimSpace(cfg.ArchiveDir) == "" {
		return nil, fmt.Errorf("%w: inbox and archive directories are required", ErrInvalidConfig)
	}

	w := &Worker{
		inboxDir:   cfg.InboxDir,
		archiveDir: cfg.ArchiveDir,
		workers:    cfg.Workers,
		interval:   cfg.PollInterval,
		lockTTL:    cfg.LockTTL,
		svc:        p.Service,
		log:        p.Log.Named("ingest.worker"),
		metrics:    p.Metrics,
	}
	if w.workers <= 0 {
		w.workers = 1
	}
	if w.interval <= 0 {
		w.interval = 10 * time.Second
	}
	if w.lockTTL <= 0 {
		w.lockTTL = 5 * time.Minute
	}
	if p.Locker != nil {
		w.locker = p.Locker
	}
	return w, nil
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.Warn("inbox sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce processes every bundle currently in the inbox and returns the first
// infrastructure failure. Bundles that failed on infrastructure stay in the inbox
// for the next sweep. Cancelling ctx stops the sweep between bundles; a bundle
// that already started runs to completion.
func (w *Worker) RunOnce(ctx context.Context) error {
	files, err := w.pending()
	if err != nil {
		return err
	}
	w.metrics.ObserveSweep(len(files))
	if len(files) == 0 {
		return nil
	}

	g := new(errgroup.Group)
	g.SetLimit(w.workers)
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			err := w.ProcessFile(ctx, path)
			if errors.Is(err, ErrBundleLocked) || errors.Is(err, ErrBundleGone) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ProcessFile parses one bundle file and runs it through the orchestrator.
// Parse failures move the file to the rejected archive and are not returned.
//
// The bundle is detached from ctx cancellation and bounded by the lock TTL, so
// a shutdown never interrupts a half-walked bundle.
func (w *Worker) ProcessFile(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.lockTTL)
	defer cancel()

	started := time.Now()
	name := filepath.Base(path)
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	log := obslogger.WithContext(ctx, w.log).With(zap.String("file", name))

	if w.locker != nil {
		key := keyBundleLock + name
		token, ok, err := w.locker.TryLock(ctx, key, w.lockTTL)
		if err != nil {
			w.metrics.IncFailure(obsmetrics.IngestFailureUnknown)
			return fmt.Errorf("lock bundle %s: %w", name, err)
		}
		if !ok {
			w.metrics.IncLockContention()
			log.Debug("bundle locked by another instance")
			return ErrBundleLocked
		}
		defer func() {
			if err := w.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn("release bundle lock failed", zap.Error(err))
			}
		}()
	}

	doc, operations, err := w.parse(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("bundle already taken by another instance")
		return ErrBundleGone
	}
	if err != nil && !isParseError(err) {
		w.metrics.IncFailure(obsmetrics.ClassifyFailure(err))
		w.metrics.ObserveBundle(statusFailed, time.Since(started).Seconds())
		return err
	}
	if err != nil {
		w.metrics.IncFailure(obsmetrics.IngestFailureParse)
		w.metrics.ObserveBundle(statusRejected, time.Since(started).Seconds())
		log.Error("bundle parse failed", zap.Error(err))
		return w.archive(path, filepath.Join(w.archiveDir, rejectedDir))
	}

	log = obslogger.WithDocument(log, doc.ID)
	outcome, err := w.svc.ProcessBundle(ctx, doc, operations)
	if err != nil {
		w.metrics.IncFailure(obsmetrics.ClassifyFailure(err))
		w.metrics.ObserveBundle(statusFailed, time.Since(started).Seconds())
		return fmt.Errorf("process bundle %s: %w", name, err)
	}

	w.metrics.ObserveBundle(statusProcessed, time.Since(started).Seconds())
	log.Info("bundle ingested",
		zap.Int("operations", len(operations)),
		zap.Int("accepted", len(outcome.Accepted)),
		zap.Int("rejected", len(outcome.Rejected)),
	)
	return w.archive(path, w.archiveDir)
}

func (w *Worker) pending() ([]string, error) {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), bundleExt) {
			continue
		}
		files = append(files, filepath.Join(w.inboxDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (w *Worker) parse(path string) (chargedomain.Document, []chargedomain.ChargeOperation, error) {
	f, err := os.Open(path)
	if err != nil {
		return chargedomain.Document{}, nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return document.Parse(f)
}

func (w *Worker) archive(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.Rename(path, filepath.Join(dir, filepath.Base(path))); err != nil {
		return fmt.Errorf("archive bundle: %w", err)
	}
	return nil
}

func isParseError(err error) bool {
	return errors.Is(err, document.ErrSchemaValidation) ||
		errors.Is(err, document.ErrMalformedContent) ||
		errors.Is(err, document.ErrInconsistentGrouping) ||
		errors.Is(err, document.ErrEmptyBundle)
}
