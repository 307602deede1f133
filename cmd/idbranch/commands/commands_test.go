package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/idbranch/pkg/lint"
	"github.com/l3aro/idbranch/pkg/render"
)

const kernel = `__kernel void k(__global int *out) {
  int n = get_local_id(0);
  for (int i = 0; i < n; i++) {
    out[i] = i;
  }
}
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.cl"), []byte(kernel), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheckText(t *testing.T) {
	setup(t)

	stdout, stderr, err := execute(t, "check", "--json=false", "--no-cache", "--no-color", ".")
	require.ErrorIs(t, err, lint.ErrWarnings)

	assert.Contains(t, stdout, "k.cl:3:3: warning: backward branch (for loop) is ID-dependent due to variable reference to 'n' and may cause performance degradation [altera-id-dependent-backward-branch]")
	assert.Contains(t, stdout, "k.cl:2:3: note: assignment of ID-dependent variable n")
	assert.Contains(t, stderr, "1 warning in 1 file")
}

func TestCheckJSONWithCache(t *testing.T) {
	dir := setup(t)

	for range 2 {
		stdout, _, err := execute(t, "check", "--json", "--no-cache=false", "k.cl")
		require.ErrorIs(t, err, lint.ErrWarnings)

		var diags []render.Diagnostic
		require.NoError(t, json.Unmarshal([]byte(stdout), &diags))
		require.Len(t, diags, 2)
		assert.Equal(t, "warning", diags[0].Severity)
		assert.Equal(t, "k", diags[0].Function)
		assert.Equal(t, 3, diags[0].Line)
	}
	assert.FileExists(t, filepath.Join(dir, ".idbranch", "cache.msgpack"))
}

func TestCheckIDFuncDisablesWarning(t *testing.T) {
	setup(t)

	_, _, err := execute(t, "check", "--json=false", "--no-cache", "--id-func", "-get_local_id", "k.cl")
	assert.NoError(t, err)
}

func TestExplain(t *testing.T) {
	setup(t)

	stdout, _, err := execute(t, "explain", "--json", "k.cl", "k")
	require.NoError(t, err)

	var view explainView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "k", view.Function)
	require.Len(t, view.Records, 1)
	assert.Equal(t, "n", view.Records[0].Name)
	assert.Equal(t, "direct", view.Records[0].Origin)
	require.Len(t, view.Loops, 1)
	assert.Equal(t, "variable", view.Loops[0].Class)
	assert.Equal(t, "n", view.Loops[0].Via)
	assert.Len(t, view.Events, 2)

	_, _, err = execute(t, "explain", "--json=false", "k.cl", "missing")
	assert.ErrorContains(t, err, `function "missing" not found`)
}

func TestIDFunctionOverrides(t *testing.T) {
	builtin := []string{"get_global_id", "get_local_id"}

	assert.Nil(t, idFunctionOverrides(builtin, builtin, ""))
	assert.Equal(t,
		map[string]bool{"get_local_id": false, "lane": true},
		idFunctionOverrides(builtin, []string{"get_global_id"}, "lane"),
	)
}
