package nurture

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the fallback entry every lookup table must carry.
const DefaultKey = "default"

//go:embed content/default.yaml
var defaultContentYAML []byte

// QuickWin is the first email's challenge specific action.
type QuickWin struct {
	Action       string   `yaml:"action"`
	Steps        []string `yaml:"steps"`
	TimeToResult string   `yaml:"time_to_result"`
}

// Opportunity is one AI use case inside an industry deep dive.
type Opportunity struct {
	Name       string `yaml:"name"`
	Impact     string `yaml:"impact"`
	Difficulty string `yaml:"difficulty"`
}

// IndustryInsight backs the industry deep dive email.
type IndustryInsight struct {
	Label         string        `yaml:"label"`
	Opportunities []Opportunity `yaml:"opportunities"`
	Stat          string        `yaml:"stat"`
}

// AreaAdvice coaches the prospect on their weakest dimension.
type AreaAdvice struct {
	Title    string   `yaml:"title"`
	Problem  string   `yaml:"problem"`
	Remedies []string `yaml:"remedies"`
	Resource string   `yaml:"resource"`
}

// CaseStudy is a short customer story.
type CaseStudy struct {
	Company     string   `yaml:"company"`
	Industry    string   `yaml:"industry"`
	Challenge   string   `yaml:"challenge"`
	Solution    string   `yaml:"solution"`
	Results     []string `yaml:"results"`
	Quote       string   `yaml:"quote"`
	QuoteAuthor string   `yaml:"quote_author"`
}

// Resource is the free download offered in the fifth email.
type Resource struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Includes    []string `yaml:"includes"`
}

// Offer is a paid engagement pitched in the sixth email.
type Offer struct {
	Name     string   `yaml:"name"`
	Headline string   `yaml:"headline"`
	Benefits []string `yaml:"benefits"`
	Price    string   `yaml:"price"`
	CTA      string   `yaml:"cta"`
}

// Offers holds both pitch variants.
type Offers struct {
	Consulting Offer `yaml:"consulting"`
	Course     Offer `yaml:"course"`
}

// Content is the versioned copy the generator renders. It is loaded from
// YAML so marketing can change it without touching the sequence logic.
type Content struct {
	Version      string                     `yaml:"version"`
	QuickWins    map[string]QuickWin        `yaml:"quick_wins"`
	Industries   map[string]IndustryInsight `yaml:"industries"`
	WeakAreas    map[string]AreaAdvice      `yaml:"weak_areas"`
	CaseStudies  map[string]CaseStudy       `yaml:"case_studies"`
	CaseFallback string                     `yaml:"case_study_fallback"`
	FreeResource Resource                   `yaml:"free_resource"`
	Offers       Offers                     `yaml:"offers"`
}

// ParseContent decodes and validates a YAML content document.
func ParseContent(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse nurture content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadContent reads content from path, or returns the built-in content when
// path is empty.
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return DefaultContent()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nurture content %s: %w", path, err)
	}
	return ParseContent(data)
}

// DefaultContent returns the built-in content set.
func DefaultContent() (*Content, error) {
	return ParseContent(defaultContentYAML)
}

// Validate makes sure every lookup has somewhere to fall back to.
func (c *Content) Validate() error {
	if _, ok := c.QuickWins[DefaultKey]; !ok {
		return fmt.Errorf("nurture content: quick_wins needs a %q entry", DefaultKey)
	}
	if _, ok := c.Industries[DefaultKey]; !ok {
		return fmt.Errorf("nurture content: industries needs a %q entry", DefaultKey)
	}
	for _, area := range dimensionOrder {
		if _, ok := c.WeakAreas[area]; !ok {
			return fmt.Errorf("nurture content: weak_areas is missing %q", area)
		}
	}
	if c.CaseFallback == "" {
		c.CaseFallback = "consulting"
	}
	if _, ok := c.CaseStudies[c.CaseFallback]; !ok {
		return fmt.Errorf("nurture content: case_studies is missing fallback %q", c.CaseFallback)
	}
	return nil
}

func (c *Content) quickWin(challenge string) QuickWin {
	if qw, ok := c.QuickWins[challenge]; ok {
		return qw
	}
	return c.QuickWins[DefaultKey]
}

func (c *Content) industry(key string) IndustryInsight {
	if in, ok := c.Industries[key]; ok {
		return in
	}
	return c.Industries[DefaultKey]
}

func (c *Content) caseStudy(industry string) CaseStudy {
	if cs, ok := c.CaseStudies[industry]; ok {
		return cs
	}
	return c.CaseStudies[c.CaseFallback]
}
