package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/rules"
)

func TestDefault_EmbeddedTables(t *testing.T) {
	rs := rules.Default()

	assert.NotEmpty(t, rs.Version())
	assert.Len(t, rs.EconomicZones(), 36)
	assert.Len(t, rs.LegalTypes(), 20)
	assert.ElementsMatch(t,
		[]string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com"},
		rs.PublicEmailDomains(),
	)
}

func TestDefault_ZonePointsInFixedSet(t *testing.T) {
	allowed := map[float64]bool{5: true, 10: true, 15: true, 30: true}
	for zone, pts := range rules.Default().EconomicZones() {
		assert.True(t, allowed[pts], "zone %q has unexpected points %v", zone, pts)
	}
}

func TestDefault_LegalTypePointsInFixedSet(t *testing.T) {
	allowed := map[float64]bool{0: true, 5: true, 20: true}
	for lt, pts := range rules.Default().LegalTypes() {
		assert.True(t, allowed[pts], "legal type %q has unexpected points %v", lt, pts)
	}
}

func TestRuleSet_Lookups(t *testing.T) {
	rs := rules.Default()

	pts, ok := rs.EconomicZonePoints("DIFC")
	require.True(t, ok)
	assert.Equal(t, 30.0, pts)

	_, ok = rs.EconomicZonePoints("difc")
	assert.False(t, ok, "lookup must be case-sensitive")

	pts, ok = rs.LegalTypePoints("Single Person Company")
	require.True(t, ok)
	assert.Equal(t, 0.0, pts)

	assert.True(t, rs.IsWPSExempt("N/A"))
	assert.True(t, rs.IsWPSExempt(""))
	assert.False(t, rs.IsWPSExempt("ACTIVE"))

	p, ok := rs.MatchWPSNegative("X *COMPANY HAVING FINE, Y")
	require.True(t, ok)
	assert.Equal(t, "*COMPANY HAVING FINE,", p)

	_, ok = rs.MatchWPSNegative("ALL GOOD")
	assert.False(t, ok)

	assert.True(t, rs.IsPublicEmailDomain("gmail.com"))
	assert.False(t, rs.IsPublicEmailDomain("acme.com"))
}

func TestRuleSet_TablesAreCopies(t *testing.T) {
	rs := rules.Default()
	zones := rs.EconomicZones()
	zones["DIFC"] = 0

	pts, _ := rs.EconomicZonePoints("DIFC")
	assert.Equal(t, 30.0, pts)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	content := `
version: "test-1"
economic_zones:
  "Zone A": 10
legal_types:
  "Type A": 5
wps:
  exempt: ["private"]
  negative_patterns: ["blocked"]
public_email_domains: ["Mail.Example"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rs, err := rules.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-1", rs.Version())
	assert.True(t, rs.IsWPSExempt("PRIVATE"), "exempt entries are upper-cased")
	_, ok := rs.MatchWPSNegative("COMPANY BLOCKED")
	assert.True(t, ok)
	assert.True(t, rs.IsPublicEmailDomain("mail.example"))
}

func TestLoadFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
version = "toml-1"
public_email_domains = ["gmail.com"]

[economic_zones]
"DIFC" = 30.0

[legal_types]
"Civil Company" = 20.0

[wps]
exempt = ["PRIVATE", ""]
negative_patterns = ["CANCEL COMPANY"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rs, err := rules.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "toml-1", rs.Version())
	pts, ok := rs.EconomicZonePoints("DIFC")
	require.True(t, ok)
	assert.Equal(t, 30.0, pts)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := rules.LoadFile(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "rules.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

		_, err := rules.LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file extension")
	})

	t.Run("missing version", func(t *testing.T) {
		path := filepath.Join(dir, "noversion.yaml")
		content := "economic_zones: {A: 5}\nlegal_types: {B: 5}\nwps: {negative_patterns: [X]}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := rules.LoadFile(path)
		assert.ErrorIs(t, err, rules.ErrInvalidRuleSet)
	})

	t.Run("empty negative pattern", func(t *testing.T) {
		content := "version: v\neconomic_zones: {A: 5}\nlegal_types: {B: 5}\nwps: {negative_patterns: [\"\"]}\n"
		_, err := rules.Parse([]byte(content), rules.FormatYAML)
		assert.ErrorIs(t, err, rules.ErrInvalidRuleSet)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := rules.Parse([]byte("version: [unclosed"), rules.FormatYAML)
		assert.Error(t, err)
	})
}
