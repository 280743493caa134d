// Package rules holds the versioned lookup tables consulted by the factor
// scorers. Tables are data: the default set is embedded from rules.yaml and
// an operator may load a replacement from a YAML or TOML file.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Format identifies the encoding of a rule file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrInvalidRuleSet is returned when a rule file decodes but is unusable.
var ErrInvalidRuleSet = errors.New("rules: invalid rule set")

// RuleSet is an immutable, versioned collection of scoring tables.
// It is safe for concurrent use.
type RuleSet struct {
	version            string
	economicZones      map[string]float64
	legalTypes         map[string]float64
	wpsExempt          map[string]struct{}
	wpsNegative        []string
	publicEmailDomains map[string]struct{}
}

type ruleFile struct {
	Version            string             `yaml:"version" toml:"version"`
	EconomicZones      map[string]float64 `yaml:"economic_zones" toml:"economic_zones"`
	LegalTypes         map[string]float64 `yaml:"legal_types" toml:"legal_types"`
	WPS                wpsRules           `yaml:"wps" toml:"wps"`
	PublicEmailDomains []string           `yaml:"public_email_domains" toml:"public_email_domains"`
}

type wpsRules struct {
	Exempt           []string `yaml:"exempt" toml:"exempt"`
	NegativePatterns []string `yaml:"negative_patterns" toml:"negative_patterns"`
}

var defaultOnce = sync.OnceValues(func() (*RuleSet, error) {
	return Parse(defaultRulesYAML, FormatYAML)
})

// Default returns the embedded rule set. It panics only if the embedded
// file is corrupt, which the package tests rule out.
func Default() *RuleSet {
	rs, err := defaultOnce()
	if err != nil {
		panic(fmt.Sprintf("rules: embedded rule set: %v", err))
	}
	return rs
}

// LoadFile reads a rule set from disk, choosing the decoder by extension.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return nil, fmt.Errorf("rules: unsupported file extension %q", filepath.Ext(path))
	}

	rs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("rules: load %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes and validates a rule set.
func Parse(data []byte, format Format) (*RuleSet, error) {
	var rf ruleFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("rules: decode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("rules: decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("rules: unknown format %q", format)
	}

	if err := rf.validate(); err != nil {
		return nil, err
	}

	return rf.build(), nil
}

func (rf ruleFile) validate() error {
	switch {
	case strings.TrimSpace(rf.Version) == "":
		return fmt.Errorf("%w: version is required", ErrInvalidRuleSet)
	case len(rf.EconomicZones) == 0:
		return fmt.Errorf("%w: economic_zones is empty", ErrInvalidRuleSet)
	case len(rf.LegalTypes) == 0:
		return fmt.Errorf("%w: legal_types is empty", ErrInvalidRuleSet)
	case len(rf.WPS.NegativePatterns) == 0:
		return fmt.Errorf("%w: wps.negative_patterns is empty", ErrInvalidRuleSet)
	}
	for _, p := range rf.WPS.NegativePatterns {
		if p == "" {
			// An empty pattern would match every status.
			return fmt.Errorf("%w: empty wps negative pattern", ErrInvalidRuleSet)
		}
	}
	return nil
}

func (rf ruleFile) build() *RuleSet {
	rs := &RuleSet{
		version:            rf.Version,
		economicZones:      make(map[string]float64, len(rf.EconomicZones)),
		legalTypes:         make(map[string]float64, len(rf.LegalTypes)),
		wpsExempt:          make(map[string]struct{}, len(rf.WPS.Exempt)),
		wpsNegative:        make([]string, 0, len(rf.WPS.NegativePatterns)),
		publicEmailDomains: make(map[string]struct{}, len(rf.PublicEmailDomains)),
	}
	for k, v := range rf.EconomicZones {
		rs.economicZones[k] = v
	}
	for k, v := range rf.LegalTypes {
		rs.legalTypes[k] = v
	}
	for _, s := range rf.WPS.Exempt {
		rs.wpsExempt[strings.ToUpper(s)] = struct{}{}
	}
	for _, p := range rf.WPS.NegativePatterns {
		rs.wpsNegative = append(rs.wpsNegative, strings.ToUpper(p))
	}
	for _, d := range rf.PublicEmailDomains {
		rs.publicEmailDomains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return rs
}

// Version identifies the rule tables used to produce a score.
func (rs *RuleSet) Version() string {
	return rs.version
}

// EconomicZonePoints looks up a licensing authority by exact name.
func (rs *RuleSet) EconomicZonePoints(zone string) (float64, bool) {
	v, ok := rs.economicZones[zone]
	return v, ok
}

// LegalTypePoints looks up a legal-entity classification by exact name.
func (rs *RuleSet) LegalTypePoints(legalType string) (float64, bool) {
	v, ok := rs.legalTypes[legalType]
	return v, ok
}

// IsWPSExempt reports whether an upper-cased WPS status is an exempt sentinel.
func (rs *RuleSet) IsWPSExempt(status string) bool {
	_, ok := rs.wpsExempt[status]
	return ok
}

// MatchWPSNegative returns the first negative pattern contained in an
// upper-cased WPS status.
func (rs *RuleSet) MatchWPSNegative(status string) (string, bool) {
	for _, p := range rs.wpsNegative {
		if strings.Contains(status, p) {
			return p, true
		}
	}
	return "", false
}

// IsPublicEmailDomain reports whether domain is a public webmail provider.
func (rs *RuleSet) IsPublicEmailDomain(domain string) bool {
	_, ok := rs.publicEmailDomains[domain]
	return ok
}

// EconomicZones returns a copy of the zone table.
func (rs *RuleSet) EconomicZones() map[string]float64 {
	return copyTable(rs.economicZones)
}

// LegalTypes returns a copy of the legal-type table.
func (rs *RuleSet) LegalTypes() map[string]float64 {
	return copyTable(rs.legalTypes)
}

// PublicEmailDomains returns the public webmail domains.
func (rs *RuleSet) PublicEmailDomains() []string {
	out := make([]string, 0, len(rs.publicEmailDomains))
	for d := range rs.publicEmailDomains {
		out = append(out, d)
	}
	return out
}

func copyTable(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
