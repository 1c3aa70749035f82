package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"typewalk/internal/config"
	"typewalk/internal/observability"
)

func newTestAnalyzer(t *testing.T, root string) *Analyzer {
	t.Helper()
	cfg := config.Default()
	cfg.WatchPaths = []string{root}
	cfg.DB.Enabled = false
	cfg.Exclude.Dirs = []string{"__pycache__"}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunFullScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models.py"), `
class A: pass
class B(A): pass
`)
	writeFile(t, filepath.Join(root, "pkg", "extra.py"), `
class C: pass
`)
	writeFile(t, filepath.Join(root, "notes.txt"), "not python")

	a := newTestAnalyzer(t, root)
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, result.FileCount)
	require.Equal(t, 3, result.ClassCount)
	require.Empty(t, result.Diagnostics)
	require.EqualValues(t, 1, result.Revision)
}

func TestRunReportsDiagnostics(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.py"), `
class A: pass
class B(A): pass
class C(A, B): pass
`)

	a := newTestAnalyzer(t, root)
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, result.Diagnostics)
	kinds := make([]string, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		kinds = append(kinds, d.Kind)
	}
	require.Contains(t, kinds, "inconsistent-mro")
}

func TestReanalyzeFixesDiagnostic(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "broken.py")
	writeFile(t, path, `
class A: pass
class B(A): pass
class C(A, B): pass
`)

	a := newTestAnalyzer(t, root)
	first, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first.Diagnostics)

	writeFile(t, path, `
class A: pass
class B(A): pass
class C(B, A): pass
`)
	second, err := a.Reanalyze(context.Background(), []string{path})
	require.NoError(t, err)

	require.Greater(t, second.Revision, first.Revision)
	require.Empty(t, second.Diagnostics)
	require.Equal(t, 1, second.FileCount)
}

func TestReanalyzeHandlesDeletedFile(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.py")
	gone := filepath.Join(root, "gone.py")
	writeFile(t, keep, "class A: pass\n")
	writeFile(t, gone, "class B: pass\n")

	a := newTestAnalyzer(t, root)
	first, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.FileCount)

	require.NoError(t, os.Remove(gone))
	second, err := a.Reanalyze(context.Background(), []string{gone})
	require.NoError(t, err)

	require.Equal(t, 1, second.FileCount)
	require.Equal(t, 1, second.ClassCount)
}

func parseSampleCount(t *testing.T) uint64 {
	t.Helper()
	h, ok := observability.ParsingDuration.WithLabelValues("python").(prometheus.Histogram)
	require.True(t, ok)
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestParseTimingObservedOncePerFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "single.py"), "class A: pass\n")

	a := newTestAnalyzer(t, root)
	before := parseSampleCount(t)
	_, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, before+1, parseSampleCount(t))
}

func TestScanRespectsExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.py"), "class A: pass\n")
	writeFile(t, filepath.Join(root, "__pycache__", "app.cpython-313.py"), "class Cached: pass\n")

	a := newTestAnalyzer(t, root)
	result, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.FileCount)
}

func TestHealthCheck(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.py"), "class A: pass\n")

	a := newTestAnalyzer(t, root)
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	status := a.Check(context.Background())
	require.Equal(t, "up", status.Status)
	require.EqualValues(t, 1, status.Revision)
	require.Equal(t, 1, status.Files)
}

func TestRunPersistsHistory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.py"), `
class A: pass
class B(A, A): pass
`)

	cfg := config.Default()
	cfg.WatchPaths = []string{root}
	cfg.DB.Enabled = true
	cfg.DB.Path = filepath.Join(t.TempDir(), "history.db")
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	runs, err := a.store.LoadRuns("", time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, result.RunID, runs[0].ID)
	require.Equal(t, len(result.Diagnostics), runs[0].DiagnosticCount)

	diags, err := a.store.LoadDiagnostics(result.RunID)
	require.NoError(t, err)
	require.Len(t, diags, len(result.Diagnostics))
}
