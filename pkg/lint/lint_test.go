package lint

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/idbranch/pkg/cache"
	"github.com/l3aro/idbranch/pkg/idcheck"
)

const dependent = `__kernel void k(__global int *out) {
  int t = get_local_id(0);
  while (t < 8) {
    t++;
  }
}
`

const uniform = `__kernel void u(__global int *out, int n) {
  for (int i = 0; i < n; i++) {
    out[i] = 0;
  }
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestAnalyzeSource(t *testing.T) {
	res, err := AnalyzeSource(context.Background(), "k.cl", []byte(dependent+uniform), Options{})
	require.NoError(t, err)

	require.Len(t, res.Functions, 2)
	assert.Equal(t, "k", res.Functions[0].Name)
	assert.Equal(t, "u", res.Functions[1].Name)
	assert.Len(t, res.Functions[0].Events, 2)
	assert.Empty(t, res.Functions[1].Events)
	assert.Equal(t, 1, res.Warnings())
}

func TestAnalyzeSource_PerFunctionTables(t *testing.T) {
	// t in the second function is a different variable
	src := `void a(void) { int t = get_local_id(0); }
void b(int t) { while (t) { } }
`
	res, err := AnalyzeSource(context.Background(), "k.cl", []byte(src), Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Warnings())
}

func TestAnalyzeSource_CustomIDFunctions(t *testing.T) {
	opts := Options{IDFunctions: idcheck.IDFunctions{"lane": true}}
	src := `void k(void) { int x = get_local_id(0); while (x) { } while (lane()) { } }`

	res, err := AnalyzeSource(context.Background(), "k.cl", []byte(src), opts)
	require.NoError(t, err)
	require.Len(t, res.Functions, 1)
	require.Len(t, res.Functions[0].Events, 1)
	assert.Contains(t, res.Functions[0].Events[0].Message, "ID function call")
}

func TestRun_KeepsInputOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.cl": dependent,
		"b.cl": uniform,
		"c.cl": dependent,
	})
	files := []string{
		filepath.Join(dir, "c.cl"),
		filepath.Join(dir, "missing.cl"),
		filepath.Join(dir, "a.cl"),
		filepath.Join(dir, "b.cl"),
	}

	var mu sync.Mutex
	var progress []int
	opts := Options{Jobs: 2, Progress: func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		progress = append(progress, done)
	}}

	results, err := Run(context.Background(), files, opts)
	require.NoError(t, err)
	require.Len(t, results, len(files))
	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
	}

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, 1, results[2].Warnings())
	assert.Zero(t, results[3].Warnings())
	assert.Equal(t, 2, Warnings(results))
	assert.Len(t, Failed(results), 1)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, progress)
}

func TestRun_Cancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.cl": dependent})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []string{filepath.Join(dir, "a.cl")}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.cl": dependent + uniform, "b.cl": dependent})
	files := []string{filepath.Join(dir, "a.cl"), filepath.Join(dir, "b.cl")}

	first, err := Run(context.Background(), files, Options{Jobs: 1})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(context.Background(), files, Options{Jobs: 4})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyzeFile_Cache(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.cl": dependent, "b.cl": dependent})
	cachePath := filepath.Join(dir, ".idbranch", "cache.msgpack")

	rc, err := cache.Open[FileResult](cachePath, 0)
	require.NoError(t, err)
	opts := Options{Cache: rc}

	first := AnalyzeFile(context.Background(), filepath.Join(dir, "a.cl"), opts)
	require.NoError(t, first.Err)
	assert.False(t, first.Cached)

	// same content under another name hits the same entry
	second := AnalyzeFile(context.Background(), filepath.Join(dir, "b.cl"), opts)
	assert.True(t, second.Cached)
	assert.Equal(t, filepath.Join(dir, "b.cl"), second.Path)
	assert.Equal(t, first.Functions, second.Functions)
	require.NoError(t, rc.Close())

	reopened, err := cache.Open[FileResult](cachePath, 0)
	require.NoError(t, err)
	third := AnalyzeFile(context.Background(), filepath.Join(dir, "a.cl"), Options{Cache: reopened})
	assert.True(t, third.Cached)
	assert.Equal(t, 1, third.Warnings())

	// a different ID-function set is a different key
	other := AnalyzeFile(context.Background(), filepath.Join(dir, "a.cl"),
		Options{Cache: reopened, IDFunctions: idcheck.IDFunctions{"lane": true}})
	assert.False(t, other.Cached)
	assert.Zero(t, other.Warnings())
}

func TestCacheKey(t *testing.T) {
	src := []byte(dependent)
	assert.Equal(t, CacheKey(src, Options{}), CacheKey(src, Options{IDFunctions: idcheck.DefaultIDFunctions()}))
	assert.NotEqual(t, CacheKey(src, Options{}), CacheKey([]byte(uniform), Options{}))
	assert.NotEqual(t, CacheKey(src, Options{}), CacheKey(src, Options{Qualifiers: []string{}}))
}

func TestExplain(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.cl": dependent + uniform})
	path := filepath.Join(dir, "a.cl")

	rep, err := Explain(context.Background(), path, "k", Options{})
	require.NoError(t, err)
	assert.Equal(t, "k", rep.Function)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "t", rep.Records[0].Name)
	require.Len(t, rep.Loops, 1)
	assert.True(t, rep.Loops[0].Classification.Dependent())

	_, err = Explain(context.Background(), path, "nope", Options{})
	assert.Error(t, err)

	names, err := Functions(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "u"}, names)
}
