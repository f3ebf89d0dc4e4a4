package rewrite

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Variant selects the rule set applied to index documents.
type Variant string

const (
	VariantRaw Variant = "raw"
	VariantApp Variant = "app"
	VariantWeb Variant = "web"
)

// DefaultIndexPatterns selects every file whose name ends in index.json.
var DefaultIndexPatterns = []string{"**/*index.json"}

// DefaultAppRules point example and demo hosts at the app-local scheme.
var DefaultAppRules = Rules{
	{From: "https://interactive-examples.mdn.mozilla.net", To: "mdn-app://examples/examples"},
	{From: "https://yari-demos.prod.mdn.mozit.cloud", To: "mdn-app://yari-demos"},
}

// DefaultWebRules point the same hosts at site-root-relative paths.
var DefaultWebRules = Rules{
	{From: "https://interactive-examples.mdn.mozilla.net", To: "/examples"},
	{From: "https://yari-demos.prod.mdn.mozit.cloud", To: "/yari-demos"},
}

// ParseVariant parses a variant name.
func ParseVariant(name string) (Variant, error) {
	switch Variant(name) {
	case VariantRaw, VariantApp, VariantWeb:
		return Variant(name), nil
	default:
		return "", fmt.Errorf("unknown variant: %q", name)
	}
}

// Suffix is inserted into archive names ahead of "-update.zip" and
// "-content.zip". The web variant keeps the plain names.
func (v Variant) Suffix() string {
	switch v {
	case VariantWeb:
		return ""
	default:
		return "-" + string(v)
	}
}

// Rewriter applies a variant's rules to the files its patterns select.
type Rewriter struct {
	patterns []string
	rules    map[Variant]Rules
}

// NewRewriter builds a Rewriter. The raw variant never has rules.
func NewRewriter(patterns []string, app, web Rules) (*Rewriter, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid index pattern: %q", p)
		}
	}
	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("app rules: %w", err)
	}
	if err := web.Validate(); err != nil {
		return nil, fmt.Errorf("web rules: %w", err)
	}
	return &Rewriter{
		patterns: patterns,
		rules: map[Variant]Rules{
			VariantApp: app,
			VariantWeb: web,
		},
	}, nil
}

// Default returns a Rewriter with the built-in patterns and rules.
func Default() *Rewriter {
	r, err := NewRewriter(DefaultIndexPatterns, DefaultAppRules, DefaultWebRules)
	if err != nil {
		panic(err)
	}
	return r
}

// Applies reports whether relPath is an index document.
func (r *Rewriter) Applies(relPath string) bool {
	for _, p := range r.patterns {
		if matched, _ := doublestar.Match(p, relPath); matched {
			return true
		}
	}
	return false
}

// Apply returns data unchanged unless relPath is an index document and the
// variant has rules.
func (r *Rewriter) Apply(v Variant, relPath string, data []byte) ([]byte, error) {
	rules := r.rules[v]
	if len(rules) == 0 || !r.Applies(relPath) {
		return data, nil
	}
	out, err := Rewrite(string(data), rules)
	if err != nil {
		return nil, fmt.Errorf("rewrite %s (%s): %w", relPath, v, err)
	}
	return []byte(out), nil
}
