package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"subweave/internal/config"
	"subweave/internal/media"
)

// CheckResult is one preflight verdict.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// Preflight verifies the environment before a batch run: every configured
// directory present and writable, and the extraction tools on PATH when the
// run will touch video containers.
func Preflight(cfg *config.Config, includeTools bool) []CheckResult {
	results := []CheckResult{
		checkDirectory("Work directory", cfg.Paths.WorkDir),
		checkDirectory("Output directory", cfg.Paths.OutputDir),
		checkDirectory("Results database directory", filepath.Dir(cfg.Batch.DBPath)),
	}
	if !includeTools {
		return results
	}
	for _, tool := range media.CheckTools(cfg.Tools.FFprobe, cfg.Tools.FFmpeg, cfg.Tools.Mkvextract) {
		passed := tool.Available || tool.Optional
		detail := tool.Detail
		if tool.Optional && !tool.Available {
			detail = fmt.Sprintf("%s (optional)", tool.Detail)
		}
		results = append(results, CheckResult{Name: tool.Name, Passed: passed, Detail: detail})
	}
	return results
}

func checkDirectory(name, path string) CheckResult {
	info, err := os.Stat(path)
	if err != nil {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.IsDir() {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return CheckResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FirstFailure returns the failed checks' names, empty when all passed.
func FirstFailure(results []CheckResult) string {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result.Name)
		}
	}
	return strings.Join(failed, ", ")
}
