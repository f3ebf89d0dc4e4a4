// Package config loads the optional YAML run configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yuya-takeyama/differy/internal/domain"
	"github.com/yuya-takeyama/differy/internal/worker"
	"github.com/yuya-takeyama/differy/pkg/release"
	"github.com/yuya-takeyama/differy/pkg/rewrite"
)

type Config struct {
	Window        int           `yaml:"window"`
	Concurrency   int           `yaml:"concurrency"`
	Excludes      []string      `yaml:"excludes"`
	IndexPatterns []string      `yaml:"index_patterns"`
	StateFile     string        `yaml:"state_file"`
	Rewrite       RewriteConfig `yaml:"rewrite"`
}

type RewriteConfig struct {
	App rewrite.Rules `yaml:"app"`
	Web rewrite.Rules `yaml:"web"`
}

func Default() Config {
	return Config{
		Window:        release.DefaultWindow,
		Concurrency:   worker.DefaultConcurrency,
		IndexPatterns: append([]string(nil), rewrite.DefaultIndexPatterns...),
		StateFile:     release.StateFileName,
		Rewrite: RewriteConfig{
			App: append(rewrite.Rules(nil), rewrite.DefaultAppRules...),
			Web: append(rewrite.Rules(nil), rewrite.DefaultWebRules...),
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindIO,
			Path: path,
			Err:  err,
		}
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Window < 0 {
		return fmt.Errorf("window must not be negative: %d", c.Window)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive: %d", c.Concurrency)
	}
	if strings.TrimSpace(c.StateFile) == "" {
		return fmt.Errorf("state_file must not be empty")
	}
	if err := c.Rewrite.App.Validate(); err != nil {
		return fmt.Errorf("rewrite.app: %w", err)
	}
	if err := c.Rewrite.Web.Validate(); err != nil {
		return fmt.Errorf("rewrite.web: %w", err)
	}
	return nil
}

// Rewriter builds the rewriter described by the configuration.
func (c Config) Rewriter() (*rewrite.Rewriter, error) {
	return rewrite.NewRewriter(c.IndexPatterns, c.Rewrite.App, c.Rewrite.Web)
}
