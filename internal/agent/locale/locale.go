package locale

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tag is a supported language tag.
type Tag string

const (
	English    Tag = "en"
	Spanish    Tag = "es"
	Portuguese Tag = "pt"
	French     Tag = "fr"
	Italian    Tag = "it"
	German     Tag = "de"
	Russian    Tag = "ru"
	Chinese    Tag = "zh"
	Japanese   Tag = "ja"
	Korean     Tag = "ko"
	Arabic     Tag = "ar"
)

// Supported lists every tag with a phrase bundle.
var Supported = []Tag{English, Spanish, Portuguese, French, Italian, German, Russian, Chinese, Japanese, Korean, Arabic}

//go:embed bundles.yaml
var bundlesYAML []byte

// Localization holds the user-facing phrases of one language.
type Localization struct {
	Tag                     Tag    `yaml:"-"`
	ResearchSummary         string `yaml:"research_summary"`
	SourceDirectory         string `yaml:"source_directory"`
	NothingExecuted         string `yaml:"nothing_executed"`
	NoSearchResults         string `yaml:"no_search_results"`
	UnableToRetrieve        string `yaml:"unable_to_retrieve"`
	NoVideos                string `yaml:"no_videos"`
	FailedWithErrorTemplate string `yaml:"failed_with_error"`
	UseSourcesTemplate      string `yaml:"use_sources"`
	NoSources               string `yaml:"no_sources"`
	FallbackSearchTemplate  string `yaml:"fallback_search"`
	DefaultFinalInstruction string `yaml:"default_final_instruction"`
	FallbackInstruction     string `yaml:"fallback_instruction"`
	Overview                string `yaml:"overview"`
	PlanHeading             string `yaml:"plan_heading"`
	NoPlan                  string `yaml:"no_plan"`
	ExecutionHeading        string `yaml:"execution_heading"`
	StatusSucceeded         string `yaml:"status_succeeded"`
	StatusFailed            string `yaml:"status_failed"`
}

// FailedWithError renders the failure notice for a step that returned reason.
func (l Localization) FailedWithError(reason string) string {
	return strings.ReplaceAll(l.FailedWithErrorTemplate, "{reason}", reason)
}

// UseSourcesInstruction renders the citation directive for the given markers.
func (l Localization) UseSourcesInstruction(markers []string) string {
	return strings.ReplaceAll(l.UseSourcesTemplate, "{markers}", strings.Join(markers, ", "))
}

// FallbackSearchDescription describes the single search run by the fallback path.
func (l Localization) FallbackSearchDescription(query string) string {
	return strings.ReplaceAll(l.FallbackSearchTemplate, "{query}", query)
}

var bundles = mustLoadBundles(bundlesYAML)

func loadBundles(data []byte) (map[Tag]Localization, error) {
	var raw map[Tag]Localization
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse locale bundles: %w", err)
	}
	for _, tag := range Supported {
		l, ok := raw[tag]
		if !ok {
			return nil, fmt.Errorf("locale bundle %q missing", tag)
		}
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("locale bundle %q: %w", tag, err)
		}
		l.Tag = tag
		raw[tag] = l
	}
	return raw, nil
}

func mustLoadBundles(data []byte) map[Tag]Localization {
	b, err := loadBundles(data)
	if err != nil {
		panic(err)
	}
	return b
}

func (l Localization) validate() error {
	required := map[string]string{
		"research_summary":          l.ResearchSummary,
		"source_directory":          l.SourceDirectory,
		"nothing_executed":          l.NothingExecuted,
		"no_search_results":         l.NoSearchResults,
		"unable_to_retrieve":        l.UnableToRetrieve,
		"no_videos":                 l.NoVideos,
		"no_sources":                l.NoSources,
		"default_final_instruction": l.DefaultFinalInstruction,
		"fallback_instruction":      l.FallbackInstruction,
		"overview":                  l.Overview,
		"plan_heading":              l.PlanHeading,
		"no_plan":                   l.NoPlan,
		"execution_heading":         l.ExecutionHeading,
		"status_succeeded":          l.StatusSucceeded,
		"status_failed":             l.StatusFailed,
	}
	for key, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is empty", key)
		}
	}
	templates := []struct{ key, value, placeholder string }{
		{"failed_with_error", l.FailedWithErrorTemplate, "{reason}"},
		{"use_sources", l.UseSourcesTemplate, "{markers}"},
		{"fallback_search", l.FallbackSearchTemplate, "{query}"},
	}
	for _, t := range templates {
		if !strings.Contains(t.value, t.placeholder) {
			return fmt.Errorf("%s must contain %s", t.key, t.placeholder)
		}
	}
	return nil
}

// Get returns the bundle for tag, falling back to English.
func Get(tag Tag) Localization {
	if l, ok := bundles[tag]; ok {
		return l
	}
	return bundles[English]
}

// ParseTag maps a free-form language code such as "pt-BR" to a supported tag.
func ParseTag(s string) (Tag, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	if _, ok := bundles[Tag(s)]; ok {
		return Tag(s), true
	}
	return English, false
}
