package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/rules"
)

// Points awarded by the fixed-value scorers.
const (
	statusActivePoints   = 10
	statusInactivePoints = -50

	longOperationPoints  = 15
	shortOperationPoints = 5

	wpsExemptPoints   = 10
	wpsNegativePoints = -10

	visaManyPoints = 20
	visaFewPoints  = 10
	visaManyLimit  = 50

	phoneMobilePoints   = 5
	phoneLandlinePoints = 20
	phoneForeignPoints  = 5

	websitePoints = 10

	emailMissingPoints   = -10
	emailPublicPoints    = -5
	emailCorporatePoints = 5

	branchPoints = 5
)

// StatusActive is the only registration status that is not penalised.
const StatusActive = "Active"

// StatusInactivePenalty is the raw Status score of any non-active company.
const StatusInactivePenalty float64 = statusInactivePoints

const daysPerYear = 365.25

// emailPattern treats any Unicode letter or number as a word character.
var emailPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)

// FactorScorer evaluates the individual scoring factors against one rule set.
// All methods are total: malformed or missing input maps to a neutral or
// penalty score and never to an error.
type FactorScorer struct {
	rules *rules.RuleSet
}

// NewFactorScorer creates a FactorScorer bound to rs. A nil rule set means
// the embedded defaults.
func NewFactorScorer(rs *rules.RuleSet) *FactorScorer {
	if rs == nil {
		rs = rules.Default()
	}
	return &FactorScorer{rules: rs}
}

// Rules returns the rule set the scorer consults.
func (s *FactorScorer) Rules() *rules.RuleSet {
	return s.rules
}

// EconomicZone scores the licensing authority by exact, case-sensitive lookup.
func (s *FactorScorer) EconomicZone(zone *string) float64 {
	if zone == nil {
		return 0
	}
	points, _ := s.rules.EconomicZonePoints(*zone)
	return points
}

// DateOfOperations scores the span between establishment and licence expiry.
func (s *FactorScorer) DateOfOperations(est, expiry *time.Time) float64 {
	if est == nil || expiry == nil {
		return 0
	}
	years := float64(daysBetween(*est, *expiry)) / daysPerYear
	switch {
	case years > 3:
		return longOperationPoints
	case years >= 1:
		return shortOperationPoints
	default:
		return 0
	}
}

// daysBetween returns the whole days from a to b, floored like a calendar
// difference. Unix seconds are used so very distant dates cannot overflow.
func daysBetween(a, b time.Time) int64 {
	secs := b.Unix() - a.Unix()
	days := secs / 86400
	if secs%86400 != 0 && secs < 0 {
		days--
	}
	return days
}

// Status rewards an exactly "Active" registration and penalises anything else.
func (s *FactorScorer) Status(status *string) float64 {
	if status != nil && *status == StatusActive {
		return statusActivePoints
	}
	return statusInactivePoints
}

// LegalType scores the legal-entity classification by exact lookup.
func (s *FactorScorer) LegalType(legalType *string) float64 {
	if legalType == nil {
		return 0
	}
	points, _ := s.rules.LegalTypePoints(*legalType)
	return points
}

// WPS scores the wage protection status text.
func (s *FactorScorer) WPS(wps *string) float64 {
	if wps == nil {
		return 0
	}
	status := strings.ToUpper(*wps)
	if s.rules.IsWPSExempt(status) {
		return wpsExemptPoints
	}
	if _, ok := s.rules.MatchWPSNegative(status); ok {
		return wpsNegativePoints
	}
	return 0
}

// VisaNumber scores the workforce size from approved and cancelled visas.
// Both counts absent is distinct from both zero only in intent; each scores 0.
func (s *FactorScorer) VisaNumber(approved, cancelled *int64) float64 {
	if approved == nil && cancelled == nil {
		return 0
	}
	// Summed as floats so extreme counts cannot wrap.
	n := float64(valueOrZero(approved)) + float64(valueOrZero(cancelled))
	switch {
	case n > visaManyLimit:
		return visaManyPoints
	case n > 0:
		return visaFewPoints
	default:
		return 0
	}
}

// VisaRatio combines cancellation, utilisation and request ratios. The
// individual adjustments are independent and add up.
func (s *FactorScorer) VisaRatio(approved, cancelled, requested, used *int64) float64 {
	a := float64(valueOrZero(approved))
	c := float64(valueOrZero(cancelled))
	r := float64(valueOrZero(requested))
	u := float64(valueOrZero(used))

	if a+c <= 0 {
		return 0
	}

	var score float64
	if c/(a+c) > 0.3 {
		score -= 15
	}
	if a > 0 && (a-u)/a > 0.5 {
		score -= 10
	}
	// With nothing approved the request ratio is unbounded.
	if a == 0 || r/a > 2 {
		score -= 5
	}
	if a > visaManyLimit && u/a > 0.8 {
		score += 10
	}
	return score
}

// Phone scores the primary contact number, falling back to the mobile
// number when the primary is absent or blank.
func (s *FactorScorer) Phone(phone, mobile *string) float64 {
	number := mobile
	if phone != nil && strings.TrimSpace(*phone) != "" {
		number = phone
	}
	if number == nil {
		return 0
	}

	digits := normalizePhone(*number)
	switch {
	case digits == "":
		return 0
	case strings.HasPrefix(digits, "9715"),
		strings.HasPrefix(digits, "05") && len(digits) == 10:
		return phoneMobilePoints
	case strings.HasPrefix(digits, "971"), strings.HasPrefix(digits, "0"):
		return phoneLandlinePoints
	default:
		return phoneForeignPoints
	}
}

// normalizePhone drops a decimal suffix left by numeric storage and keeps
// only the ASCII digits.
func normalizePhone(raw string) string {
	head, _, _ := strings.Cut(raw, ".")
	var b strings.Builder
	b.Grow(len(head))
	for _, r := range head {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Website rewards the presence of a website.
func (s *FactorScorer) Website(url *string) float64 {
	if url == nil || strings.TrimSpace(*url) == "" {
		return 0
	}
	return websitePoints
}

// Email penalises missing and public webmail addresses and rewards
// well-formed corporate ones.
func (s *FactorScorer) Email(email *string) float64 {
	if email == nil || strings.TrimSpace(*email) == "" {
		return emailMissingPoints
	}
	addr := strings.ToLower(strings.TrimSpace(*email))
	if at := strings.LastIndexByte(addr, '@'); at >= 0 && s.rules.IsPublicEmailDomain(addr[at+1:]) {
		return emailPublicPoints
	}
	if emailPattern.MatchString(addr) {
		return emailCorporatePoints
	}
	return 0
}

// Branch rewards records flagged "yes" in any letter case. Values that are
// not text score 0.
func (s *FactorScorer) Branch(isBranch any) float64 {
	var text string
	switch v := isBranch.(type) {
	case string:
		text = v
	case *string:
		if v == nil {
			return 0
		}
		text = *v
	default:
		return 0
	}
	if strings.ToLower(text) == "yes" {
		return branchPoints
	}
	return 0
}

func valueOrZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

var defaultScorer = NewFactorScorer(nil)

// ScoreEconomicZone scores zone against the embedded rule tables.
func ScoreEconomicZone(zone *string) float64 { return defaultScorer.EconomicZone(zone) }

// ScoreDateOfOperations scores the operating span between est and expiry.
func ScoreDateOfOperations(est, expiry *time.Time) float64 {
	return defaultScorer.DateOfOperations(est, expiry)
}

// ScoreStatus scores a registration status.
func ScoreStatus(status *string) float64 { return defaultScorer.Status(status) }

// ScoreLegalType scores legalType against the embedded rule tables.
func ScoreLegalType(legalType *string) float64 { return defaultScorer.LegalType(legalType) }

// ScoreWPS scores a wage protection status against the embedded rule tables.
func ScoreWPS(wps *string) float64 { return defaultScorer.WPS(wps) }

// ScoreVisaNumber scores the approved plus cancelled visa count.
func ScoreVisaNumber(approved, cancelled *int64) float64 {
	return defaultScorer.VisaNumber(approved, cancelled)
}

// ScoreVisaRatio scores the visa lifecycle ratios.
func ScoreVisaRatio(approved, cancelled, requested, used *int64) float64 {
	return defaultScorer.VisaRatio(approved, cancelled, requested, used)
}

// ScorePhone scores the preferred contact number.
func ScorePhone(phone, mobile *string) float64 { return defaultScorer.Phone(phone, mobile) }

// ScoreWebsite scores website presence.
func ScoreWebsite(url *string) float64 { return defaultScorer.Website(url) }

// ScoreEmail scores a contact email address.
func ScoreEmail(email *string) float64 { return defaultScorer.Email(email) }

// ScoreBranch scores the branch flag.
func ScoreBranch(isBranch any) float64 { return defaultScorer.Branch(isBranch) }
