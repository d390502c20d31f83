package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
	"github.com/JakeFAU/bank-cap-etl/internal/metrics"
	"github.com/JakeFAU/bank-cap-etl/internal/progress"
	csvsink "github.com/JakeFAU/bank-cap-etl/internal/sink/csv"
)

const defaultArchiveContentType = "text/html; charset=utf-8"

// RunConfig is the explicit configuration of one run.
type RunConfig struct {
	SourceURL          string
	TableIndex         int
	Columns            etl.ColumnSpec
	RatesPath          string
	Targets            []etl.TargetCurrency
	CSVPath            string
	Table              string
	Queries            []string
	ArchivePrefix      string
	ArchiveContentType string
	NotifyTopic        string
	MetricsTextfile    string
}

// Validate checks the fields every run needs.
func (c RunConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.SourceURL) == "":
		return fmt.Errorf("source url is required")
	case c.TableIndex < 0:
		return fmt.Errorf("table index must be >= 0")
	case strings.TrimSpace(c.RatesPath) == "":
		return fmt.Errorf("rates path is required")
	case len(c.Targets) == 0:
		return fmt.Errorf("at least one target currency is required")
	case strings.TrimSpace(c.CSVPath) == "":
		return fmt.Errorf("csv path is required")
	case strings.TrimSpace(c.Table) == "":
		return fmt.Errorf("table name is required")
	}
	return nil
}

// Deps carries the collaborators of a run. Archive, Publisher and Metrics are
// optional.
type Deps struct {
	Fetcher   etl.Fetcher
	Parser    etl.Parser
	OpenStore func(ctx context.Context) (etl.TableStore, error)
	Archive   etl.BlobStore
	Hasher    etl.Hasher
	Publisher etl.Publisher
	Progress  etl.ProgressLogger
	Metrics   *metrics.Recorder
	Report    io.Writer
	Logger    *zap.Logger
	Clock     etl.Clock
	IDs       etl.IDGenerator
}

func (d Deps) validate() error {
	switch {
	case d.Fetcher == nil:
		return fmt.Errorf("fetcher is required")
	case d.Parser == nil:
		return fmt.Errorf("parser is required")
	case d.OpenStore == nil:
		return fmt.Errorf("store opener is required")
	case d.Progress == nil:
		return fmt.Errorf("progress logger is required")
	case d.Clock == nil:
		return fmt.Errorf("clock is required")
	case d.IDs == nil:
		return fmt.Errorf("id generator is required")
	case d.Archive != nil && d.Hasher == nil:
		return fmt.Errorf("hasher is required when archiving")
	}
	return nil
}

type runner struct {
	cfg     RunConfig
	deps    Deps
	logger  *zap.Logger
	summary etl.Summary
}

// Run executes one pass. The returned Summary is populated as far as the run
// progressed. On failure a "Process failed" line is appended to the progress
// log on a best-effort basis.
func Run(ctx context.Context, cfg RunConfig, deps Deps) (_ etl.Summary, err error) {
	if err := cfg.Validate(); err != nil {
		return etl.Summary{}, fmt.Errorf("invalid run config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return etl.Summary{}, fmt.Errorf("invalid run dependencies: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Report == nil {
		deps.Report = io.Discard
	}
	if cfg.ArchiveContentType == "" {
		cfg.ArchiveContentType = defaultArchiveContentType
	}

	runID, err := deps.IDs.NewID()
	if err != nil {
		return etl.Summary{}, fmt.Errorf("run id: %w", err)
	}
	r := &runner{
		cfg:  cfg,
		deps: deps,
		logger: deps.Logger.Named("pipeline").With(
			zap.String("run_id", runID),
			zap.String("url", cfg.SourceURL),
		),
		summary: etl.Summary{
			RunID:     runID,
			SourceURL: cfg.SourceURL,
			CSVPath:   cfg.CSVPath,
			Table:     cfg.Table,
			StartedAt: deps.Clock.Now(),
		},
	}
	defer func() { r.finish(err) }()

	err = r.execute(ctx)
	return r.summary, err
}

func (r *runner) execute(ctx context.Context) (err error) {
	if err := r.progress(progress.MsgStart); err != nil {
		return err
	}

	var html string
	if err := r.phase(metrics.PhaseFetch, func() error {
		var ferr error
		html, ferr = r.fetch(ctx)
		return ferr
	}); err != nil {
		return err
	}

	var set etl.RecordSet
	if err := r.phase(metrics.PhaseExtract, func() error {
		doc, perr := r.deps.Parser.Parse(html)
		if perr != nil {
			return perr
		}
		set, perr = etl.Extract(doc, r.cfg.TableIndex, r.cfg.Columns)
		return perr
	}); err != nil {
		return err
	}
	r.summary.Records = set.Len()
	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveRecords(r.cfg.SourceURL, set.Len())
	}
	r.logger.Info("extracted records", zap.Int("records", set.Len()))
	if err := r.progress(progress.MsgExtracted); err != nil {
		return err
	}

	var converted etl.ConvertedSet
	if err := r.phase(metrics.PhaseTransform, func() error {
		rates, rerr := etl.LoadRatesFile(r.cfg.RatesPath)
		if rerr != nil {
			return rerr
		}
		converted, rerr = etl.Transform(set, rates, r.cfg.Targets)
		return rerr
	}); err != nil {
		return err
	}
	if err := r.progress(progress.MsgTransformed); err != nil {
		return err
	}

	if err := csvsink.Write(converted, r.cfg.CSVPath); err != nil {
		return err
	}
	r.logger.Info("wrote csv", zap.String("path", r.cfg.CSVPath))
	if err := r.progress(progress.MsgCSVSaved); err != nil {
		return err
	}

	store, err := r.deps.OpenStore(ctx)
	if err != nil {
		if !errors.Is(err, etl.ErrStore) {
			err = fmt.Errorf("%w: open store: %v", etl.ErrStore, err)
		}
		return err
	}
	defer func() {
		store.Close()
		if cerr := r.progress(progress.MsgStoreClosed); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := r.progress(progress.MsgStoreOpened); err != nil {
		return err
	}

	if err := r.phase(metrics.PhaseLoad, func() error {
		return store.ReplaceTable(ctx, r.cfg.Table, converted)
	}); err != nil {
		return err
	}
	r.logger.Info("loaded table", zap.String("table", r.cfg.Table), zap.Int("records", converted.Len()))
	if err := r.progress(progress.MsgStoreLoaded); err != nil {
		return err
	}

	if err := r.phase(metrics.PhaseQuery, func() error {
		return r.runQueries(ctx, store)
	}); err != nil {
		return err
	}

	if err := r.progress(progress.MsgComplete); err != nil {
		return err
	}
	r.summary.FinishedAt = r.deps.Clock.Now()
	r.notify(ctx)
	return nil
}

// fetch retrieves the page and archives it when an archive is configured.
func (r *runner) fetch(ctx context.Context) (string, error) {
	html, err := r.deps.Fetcher.Fetch(ctx, r.cfg.SourceURL)
	if err != nil {
		return "", err
	}
	r.logger.Info("fetched page", zap.Int("bytes", len(html)))
	if err := r.archive(ctx, html); err != nil {
		return "", err
	}
	return html, nil
}

func (r *runner) archive(ctx context.Context, html string) error {
	if r.deps.Archive == nil {
		return nil
	}
	digest, err := r.deps.Hasher.Hash([]byte(html))
	if err != nil {
		return fmt.Errorf("%w: hash page: %v", etl.ErrIO, err)
	}
	objectPath := ArchivePath(r.cfg.ArchivePrefix, r.summary.StartedAt, digest)
	uri, err := r.deps.Archive.PutObject(ctx, objectPath, r.cfg.ArchiveContentType, strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("%w: archive page: %v", etl.ErrIO, err)
	}
	r.summary.ArchiveURI = uri
	r.logger.Info("archived page", zap.String("uri", uri), zap.Int("bytes", len(html)))
	return nil
}

// ArchivePath builds <prefix>/<YYYY-MM-DD>/<digest>.html.
func ArchivePath(prefix string, at time.Time, digest string) string {
	return path.Join(strings.Trim(prefix, "/"), at.UTC().Format("2006-01-02"), digest+".html")
}

func (r *runner) runQueries(ctx context.Context, store etl.TableStore) error {
	for _, q := range r.cfg.Queries {
		res, err := store.Query(ctx, q)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := WriteResult(&buf, res); err != nil {
			return fmt.Errorf("%w: render %q: %v", etl.ErrIO, q, err)
		}
		if _, err := r.deps.Report.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("%w: write report: %v", etl.ErrIO, err)
		}
		r.logger.Debug("ran query", zap.String("query", q), zap.Int("rows", len(res.Rows)))
	}
	return nil
}

func (r *runner) notify(ctx context.Context) {
	if r.deps.Publisher == nil || r.cfg.NotifyTopic == "" {
		return
	}
	id, err := r.deps.Publisher.Publish(ctx, r.cfg.NotifyTopic, r.summary)
	if err != nil {
		r.logger.Warn("publish run summary failed", zap.String("topic", r.cfg.NotifyTopic), zap.Error(err))
		return
	}
	r.logger.Info("published run summary", zap.String("topic", r.cfg.NotifyTopic), zap.String("message_id", id))
}

func (r *runner) finish(err error) {
	finished := r.deps.Clock.Now()
	if err != nil {
		r.logger.Error("run failed", zap.Error(err))
		if perr := r.deps.Progress.Log(progress.FailedMessage(err)); perr != nil {
			r.logger.Warn("record failure in progress log", zap.Error(perr))
		}
	} else {
		r.logger.Info("run complete", zap.Int("records", r.summary.Records))
	}
	if r.deps.Metrics == nil {
		return
	}
	r.deps.Metrics.MarkResult(err == nil, finished)
	if r.cfg.MetricsTextfile == "" {
		return
	}
	if werr := r.deps.Metrics.WriteTextfile(r.cfg.MetricsTextfile); werr != nil {
		r.logger.Warn("write metrics textfile", zap.Error(werr))
	}
}

func (r *runner) progress(msg string) error {
	if err := r.deps.Progress.Log(msg); err != nil {
		if !errors.Is(err, etl.ErrIO) {
			err = fmt.Errorf("%w: progress log: %v", etl.ErrIO, err)
		}
		return err
	}
	return nil
}

func (r *runner) phase(name string, fn func() error) error {
	start := r.deps.Clock.Now()
	err := fn()
	if r.deps.Metrics != nil {
		r.deps.Metrics.ObservePhase(name, r.deps.Clock.Now().Sub(start))
	}
	return err
}
