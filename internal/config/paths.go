package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains the file locations of one batch run
type Paths struct {
	// OutputDir is the configured output root.
	OutputDir string
	// RunDir is the timestamped directory this run writes into.
	RunDir string
	// LogsDir holds the log file when file logging is enabled.
	LogsDir string
}

// GetPaths resolves the output layout of a run started at now. Results go to
// <output>/<YYYYMMDDHHMMSS>/.
func (c *Config) GetPaths(now time.Time) (*Paths, error) {
	out, err := filepath.Abs(c.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory %q: %w", c.Output.Dir, err)
	}
	logs := filepath.Dir(c.Logging.FilePath)
	if !filepath.IsAbs(logs) {
		if logs, err = filepath.Abs(logs); err != nil {
			return nil, fmt.Errorf("failed to resolve logs directory: %w", err)
		}
	}
	return &Paths{
		OutputDir: out,
		RunDir:    filepath.Join(out, now.Format(RunDirLayout)),
		LogsDir:   logs,
	}, nil
}

// EnsureDirectories creates the run directory if it doesn't exist
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.RunDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.RunDir, err)
	}
	slog.Default().Debug("Ensured directory exists", slog.String("directory", p.RunDir))
	return nil
}

// FeaturesPath returns the features output path for an output name
func (p *Paths) FeaturesPath(name, format string) string {
	return filepath.Join(p.RunDir, name+FeaturesFileSuffix+"."+format)
}

// SummaryPath returns the summary output path for an output name
func (p *Paths) SummaryPath(name, format string) string {
	return filepath.Join(p.RunDir, name+SummaryFileSuffix+"."+format)
}

// OutputNames assigns each input of a batch a distinct output name. The
// name is the input's base name; inputs sharing a base name keep their
// extension ("rec_csv"), and any remaining clash gets a numeric suffix
// ("rec_csv_2") in input order. Names whose features file already exists in
// the run directory are skipped as well. A nil Paths only deduplicates
// within the batch.
func (p *Paths) OutputNames(inputs []string, format string) []string {
	counts := make(map[string]int, len(inputs))
	for _, in := range inputs {
		counts[BaseName(in)]++
	}

	taken := make(map[string]bool, len(inputs))
	names := make([]string, len(inputs))
	for i, in := range inputs {
		name := BaseName(in)
		if counts[name] > 1 {
			if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(in)), "."); ext != "" {
				name += "_" + ext
			}
		}
		candidate := name
		for n := 2; taken[candidate] || p.outputExists(candidate, format); n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		taken[candidate] = true
		names[i] = candidate
	}
	return names
}

func (p *Paths) outputExists(name, format string) bool {
	return p != nil && FileExists(p.FeaturesPath(name, format))
}

// ComparisonPath returns the path of the cross-input summary table
func (p *Paths) ComparisonPath() string {
	return filepath.Join(p.RunDir, ComparisonFileName)
}

// BaseName strips the directory and extension from a path
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
