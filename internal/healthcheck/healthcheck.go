package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/idbranch/internal/config"
	"github.com/l3aro/idbranch/pkg/cache"
	"github.com/l3aro/idbranch/pkg/lint"
)

// Status values reported per component.
const (
	StatusReady    = "ready"
	StatusDisabled = "disabled"
	StatusEmpty    = "empty"
	StatusError    = "error"
)

// probeKernel must produce exactly one warning with the built-in ID
// functions. It exercises qualifier blanking, the C grammar and both
// analysis passes.
const probeKernel = `__kernel void probe(__global int *out) {
  int n = get_local_id(0);
  for (int i = 0; i < n; i++) {
    out[i] = i;
  }
}
`

// ComponentStatus is the health of one part of the toolchain.
type ComponentStatus struct {
	Name   string
	Detail string
	Status string
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	EffectivePath  string
	EffectiveScope string // "global", "project" or "" for defaults
	IDFunctions    []string
	Parser         ComponentStatus
	Cache          ComponentStatus
}

// Failed reports whether any component is in error.
func (r *HealthCheckResult) Failed() bool {
	return r.Parser.Status == StatusError || r.Cache.Status == StatusError
}

// Check performs a health check against the given config.
// effectivePath is the config file actually in use, empty for defaults.
func Check(ctx context.Context, cfg *config.Config, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	ids := cfg.EffectiveIDFunctions()
	result := &HealthCheckResult{
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
		IDFunctions:    ids.Names(),
	}

	result.Parser = checkParser(ctx, lint.Options{IDFunctions: ids, Qualifiers: cfg.Qualifiers})
	result.Cache = checkCache(cfg)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, config.DirName)
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

func checkParser(ctx context.Context, opts lint.Options) ComponentStatus {
	status := ComponentStatus{Name: "parser", Detail: "tree-sitter C grammar"}

	res, err := lint.AnalyzeSource(ctx, "probe.cl", []byte(probeKernel), opts)
	switch {
	case err != nil:
		status.Status = StatusError
		status.Error = err.Error()
	case res.SyntaxErrors > 0:
		status.Status = StatusError
		status.Error = fmt.Sprintf("probe kernel has %d syntax errors", res.SyntaxErrors)
	case res.Warnings() != 1:
		// custom id_functions may legitimately disable get_local_id
		if !opts.IDFunctions["get_local_id"] {
			status.Status = StatusReady
			status.Detail += " (probe skipped, get_local_id disabled)"
			return status
		}
		status.Status = StatusError
		status.Error = fmt.Sprintf("probe kernel produced %d warnings, want 1", res.Warnings())
	default:
		status.Status = StatusReady
	}
	return status
}

func checkCache(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "cache", Detail: cfg.CachePath}
	if !cfg.Cache {
		status.Status = StatusDisabled
		return status
	}

	if _, err := os.Stat(cfg.CachePath); os.IsNotExist(err) {
		status.Status = StatusEmpty
		return status
	}

	rc, err := cache.Open[lint.FileResult](cfg.CachePath, 0)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	status.Detail = fmt.Sprintf("%s (%d entries)", cfg.CachePath, rc.Len())
	status.Status = StatusReady
	return status
}
