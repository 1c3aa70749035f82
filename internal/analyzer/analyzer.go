package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/trace"

	"typewalk/internal/config"
	"typewalk/internal/data/history"
	"typewalk/internal/errors"
	"typewalk/internal/memo"
	"typewalk/internal/observability"
	"typewalk/internal/pytype"
	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
	"typewalk/internal/util"
)

// Result summarizes one evaluation pass over the indexed classes.
type Result struct {
	RunID       string
	Revision    memo.Revision
	FileCount   int
	ClassCount  int
	Diagnostics []pytype.Diagnostic
	Duration    time.Duration
}

// Analyzer owns the scan → parse → index → evaluate pipeline and the
// class model it feeds.
type Analyzer struct {
	Config *config.Config

	parser *syntax.Parser
	store  *history.Store

	mu          sync.Mutex
	model       *pytype.Model
	revision    memo.Revision
	indexByFile map[string]*semantic.Index
	limiter     *util.Limiter
}

func New(cfg *config.Config) (*Analyzer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	a := &Analyzer{
		Config:      cfg,
		parser:      syntax.NewParser(),
		model:       pytype.NewModel(cfg.PythonVersion),
		indexByFile: make(map[string]*semantic.Index),
		limiter:     util.NewLimiter(cfg.Watch.RateLimit, cfg.Watch.Burst),
	}

	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStorage, "open history store")
		}
		a.store = store
	}

	return a, nil
}

func (a *Analyzer) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Model exposes the class model for direct queries.
func (a *Analyzer) Model() *pytype.Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

// Run performs a full scan of the configured paths and evaluates every
// indexed class.
func (a *Analyzer) Run(ctx context.Context) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyzer.Run", trace.WithAttributes())
	defer span.End()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()

	files, err := a.scanDirectories(uniqueScanRoots(a.Config.WatchPaths))
	if err != nil {
		return Result{}, errors.AddContext(err, errors.CtxOperation, "scan_directories")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Full scans rebuild the model from scratch; incremental updates go
	// through Reanalyze.
	a.model = pytype.NewModel(a.Config.PythonVersion)
	a.indexByFile = make(map[string]*semantic.Index)
	a.revision++
	a.model.SetRevision(a.revision)

	for i, path := range files {
		if err := a.processFileLocked(path); err != nil {
			slog.Warn("failed to process file", "path", path, "error", err)
		}
		if i%100 == 0 && util.GetHeapAllocMB() > uint64(a.Config.Performance.MaxHeapMB) {
			runtime.GC()
		}
	}

	result := a.evaluateLocked(ctx, start)
	observability.AnalysisDuration.WithLabelValues("full_scan").Observe(result.Duration.Seconds())

	if err := a.persistLocked(&result); err != nil {
		slog.Warn("failed to persist analysis run", "error", err)
	}
	return result, nil
}

// Reanalyze re-parses the given files, bumps the revision and re-evaluates.
// The rate limiter caps re-analysis bursts in watch mode.
func (a *Analyzer) Reanalyze(ctx context.Context, paths []string) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyzer.Reanalyze")
	defer span.End()

	if err := a.limiter.Wait(ctx, min(len(paths), a.Config.Watch.Burst)); err != nil {
		return Result{}, err
	}

	start := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.revision++
	a.model.SetRevision(a.revision)
	a.model.ResetDiagnostics()

	for _, path := range paths {
		if old, ok := a.indexByFile[path]; ok {
			a.model.RemoveModule(old)
			delete(a.indexByFile, path)
		}
		if _, err := os.Stat(path); err != nil {
			continue // deleted
		}
		if err := a.processFileLocked(path); err != nil {
			slog.Warn("failed to re-process file", "path", path, "error", err)
		}
	}

	result := a.evaluateLocked(ctx, start)
	observability.AnalysisDuration.WithLabelValues("incremental").Observe(result.Duration.Seconds())

	if err := a.persistLocked(&result); err != nil {
		slog.Warn("failed to persist analysis run", "error", err)
	}
	return result, nil
}

func (a *Analyzer) processFileLocked(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// ParseFile observes parsing duration itself
	mod, err := a.parser.ParseFile(path, content)
	if err != nil {
		return errors.Wrap(err, errors.CodeParseError, "parse file")
	}

	idx := semantic.Build(mod)
	a.model.AddModule(idx)
	a.indexByFile[path] = idx
	return nil
}

// evaluateLocked forces every memoized query so diagnostics for the current
// revision are complete.
func (a *Analyzer) evaluateLocked(ctx context.Context, start time.Time) Result {
	classCount := 0
	var extra []pytype.Diagnostic
	for _, lit := range a.model.Classes() {
		if ctx.Err() != nil {
			break
		}
		classCount++
		ct := lit.AsClass()
		if _, mroErr := a.model.TryMro(ct); mroErr != nil && mroErr.Class == lit {
			kind := "inconsistent-mro"
			if mroErr.Kind == pytype.MroCycle {
				kind = "inheritance-cycle"
			}
			extra = append(extra, pytype.Diagnostic{
				Kind:    kind,
				Message: mroErr.Error(),
				Span:    lit.HeaderSpan(),
			})
		}
		a.model.TryMetaclass(lit)
		a.model.GenericContextOf(lit)
	}

	result := Result{
		Revision:    a.revision,
		FileCount:   len(a.indexByFile),
		ClassCount:  classCount,
		Diagnostics: append(a.model.Diagnostics(), extra...),
		Duration:    time.Since(start),
	}
	return result
}

func (a *Analyzer) persistLocked(result *Result) error {
	if a.store == nil {
		return nil
	}
	id, err := a.store.SaveRun(history.Run{
		Revision:        uint64(result.Revision),
		FileCount:       result.FileCount,
		ClassCount:      result.ClassCount,
		DiagnosticCount: len(result.Diagnostics),
		Duration:        result.Duration,
	}, history.DiagnosticRows(result.Diagnostics))
	if err != nil {
		return err
	}
	result.RunID = id
	return nil
}

func (a *Analyzer) scanDirectories(roots []string) ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Dirs))
	for _, p := range a.Config.Exclude.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Files))
	for _, p := range a.Config.Exclude.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".py" && ext != ".pyi" {
				return nil
			}

			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	sort.Strings(roots)
	return roots
}

// Check implements observability.HealthChecker.
func (a *Analyzer) Check(ctx context.Context) observability.HealthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return observability.HealthStatus{
		Status:   "up",
		Revision: uint64(a.revision),
		Files:    len(a.indexByFile),
	}
}
