package qualification

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"leadengine/models"
)

// Signal is one independent piece of evidence about a prospect. Signals are
// scored into an accumulator in the order they are applied.
type Signal interface {
	apply(acc *accumulator)
}

// accumulator is the fold state shared by all signals of one qualification run.
type accumulator struct {
	score     int
	category  models.Category
	interests []string
	source    string
	utm       map[string]string
}

func (a *accumulator) setCategoryIfUnset(c models.Category) {
	if a.category == "" || a.category == models.CategoryUndetermined {
		a.category = c
	}
}

func (a *accumulator) addInterest(tag string) {
	for _, existing := range a.interests {
		if existing == tag {
			return
		}
	}
	a.interests = append(a.interests, tag)
}

// AssessmentSignal carries an assessment taken before or during qualification.
// The readiness factors are only filled by the extended enterprise questionnaire.
type AssessmentSignal struct {
	Type              string // enterprise, personal
	AIFamiliarity     int
	DataReadiness     int
	BudgetAllocated   bool
	LeadershipSupport bool
	TimelineMonths    int
}

const readinessCap = 30

// ReadinessPoints is the weighted AI readiness sub-score, capped at 30.
func (s AssessmentSignal) ReadinessPoints() int {
	points := 0
	if s.AIFamiliarity >= 3 {
		points += 6
	}
	if s.DataReadiness >= 3 {
		points += 8
	}
	if s.BudgetAllocated {
		points += 12
	}
	if s.LeadershipSupport {
		points += 6
	}
	if s.TimelineMonths > 0 && s.TimelineMonths <= 6 {
		points += 8
	}
	if points > readinessCap {
		points = readinessCap
	}
	return points
}

func (s AssessmentSignal) apply(acc *accumulator) {
	switch strings.ToLower(s.Type) {
	case "enterprise":
		acc.score += 25 + s.ReadinessPoints()
		acc.category = models.CategoryEnterpriseAI
	case "personal":
		acc.score += 15
		acc.category = models.CategoryMinistryCoaching
	}
}

// pageBucket is an interest bucket matched against visited URLs.
type pageBucket struct {
	interest string
	category models.Category
	points   int
	keywords []string
}

// Buckets are listed in tie-break order.
var pageBuckets = []pageBucket{
	{interest: "enterprise_ai", category: models.CategoryEnterpriseAI, points: 8,
		keywords: []string{"enterprise", "ai-strategy", "ai-readiness", "ai-implementation", "/ai"}},
	{interest: "divine_strategy", category: models.CategoryMinistryCoaching, points: 6,
		keywords: []string{"ministry", "divine", "church", "faith", "coaching"}},
	{interest: "investment", category: models.CategoryInvestmentFund, points: 8,
		keywords: []string{"invest", "fund", "portfolio", "capital"}},
	{interest: "speaking", category: models.CategorySpeaking, points: 5,
		keywords: []string{"speaking", "keynote", "speaker"}},
	{interest: "platform", category: models.CategoryPlatformUser, points: 2,
		keywords: []string{"platform", "dashboard", "/login", "/signup"}},
}

const pageViewCap = 25

// PageViewSignal is the list of URLs a visitor looked at before converting.
type PageViewSignal struct {
	URLs []string
}

func (s PageViewSignal) apply(acc *accumulator) {
	weights := make([]int, len(pageBuckets))
	total := 0
	for _, raw := range s.URLs {
		url := strings.ToLower(raw)
		for i, b := range pageBuckets {
			if !containsAny(url, b.keywords) {
				continue
			}
			weights[i] += b.points
			total += b.points
			acc.addInterest(b.interest)
		}
	}
	if total > pageViewCap {
		total = pageViewCap
	}
	acc.score += total

	best := -1
	for i, w := range weights {
		if w > 0 && (best == -1 || w > weights[best]) {
			best = i
		}
	}
	if best >= 0 {
		acc.setCategoryIfUnset(pageBuckets[best].category)
	}
}

var (
	executiveKeywords = []string{"ceo", "cto", "cfo", "coo", "cio", "chief", "founder", "owner",
		"president", "vp", "vice president", "executive", "managing director", "partner"}
	ministryKeywords = []string{"pastor", "minister", "ministry", "church", "reverend",
		"bishop", "elder", "chaplain", "apostle", "evangelist"}
)

// inquiryCategories maps the "what can we help with" form field to a segment.
var inquiryCategories = map[string]models.Category{
	"consulting": models.CategoryStrategicConsulting,
	"strategy":   models.CategoryStrategicConsulting,
	"enterprise": models.CategoryEnterpriseAI,
	"ai":         models.CategoryEnterpriseAI,
	"investment": models.CategoryInvestmentFund,
	"speaking":   models.CategorySpeaking,
	"ministry":   models.CategoryMinistryCoaching,
	"coaching":   models.CategoryMinistryCoaching,
	"platform":   models.CategoryPlatformUser,
}

// FormSignal is what the visitor typed into an intake form.
type FormSignal struct {
	Role    string
	Inquiry string
}

// IsExecutive reports whether a role title reads like a decision maker.
func IsExecutive(role string) bool {
	return containsWord(strings.ToLower(role), executiveKeywords)
}

// IsMinistryLeader reports whether a role title belongs to church leadership.
func IsMinistryLeader(role string) bool {
	return containsWord(strings.ToLower(role), ministryKeywords)
}

func (s FormSignal) apply(acc *accumulator) {
	if IsExecutive(s.Role) {
		acc.score += 15
	}
	if IsMinistryLeader(s.Role) {
		acc.score += 10
		acc.setCategoryIfUnset(models.CategoryMinistryCoaching)
	}
	if c, ok := inquiryCategories[strings.ToLower(strings.TrimSpace(s.Inquiry))]; ok {
		acc.setCategoryIfUnset(c)
		acc.addInterest(strings.ToLower(strings.TrimSpace(s.Inquiry)))
	}
}

// CompanySignal carries firmographics, either typed in a form or enriched.
type CompanySignal struct {
	Size    Amount
	Revenue Amount
}

const (
	largeCompanyEmployees = 100
	largeCompanyRevenue   = 10_000_000
)

func (s CompanySignal) apply(acc *accumulator) {
	if n, ok := s.Size.LowerBound(); ok && n > largeCompanyEmployees {
		acc.score += 10
	}
	if n, ok := s.Revenue.LowerBound(); ok && n > largeCompanyRevenue {
		acc.score += 15
	}
}

const (
	downloadPoints = 5
	downloadCap    = 15
)

// DownloadSignal lists the lead magnets a visitor downloaded.
type DownloadSignal struct {
	Resources []string
}

func (s DownloadSignal) apply(acc *accumulator) {
	if len(s.Resources) == 0 {
		return
	}
	points := downloadPoints * len(s.Resources)
	if points > downloadCap {
		points = downloadCap
	}
	acc.score += points
	acc.addInterest("lead_magnet")
}

// UTMSignal records attribution. It never changes the score.
type UTMSignal struct {
	Source string
	Params map[string]string
}

func (s UTMSignal) apply(acc *accumulator) {
	if s.Source != "" {
		acc.source = s.Source
	} else if src := s.Params["utm_source"]; src != "" {
		acc.source = src
	}
	if len(s.Params) > 0 {
		acc.utm = s.Params
	}
}

// Amount is a firmographic figure that clients send either as a number or as
// a human range such as "101-500", "$10M-$50M" or "500+".
type Amount string

// UnmarshalJSON accepts JSON numbers and strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

// LowerBound parses the smallest value the amount can stand for.
func (a Amount) LowerBound() (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(string(a)))
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", "usd", "").Replace(s)
	for _, sep := range []string{"-", "to", "+", "<", ">"} {
		if i := strings.Index(s, sep); i > 0 {
			s = s[:i]
			break
		}
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier, s = 1e6, strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "b"):
		multiplier, s = 1e9, strings.TrimSuffix(s, "b")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n * multiplier, true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// containsWord matches keywords on word boundaries so "vp" does not hit "mvp".
func containsWord(s string, keywords []string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	joined := " " + strings.Join(fields, " ") + " "
	for _, k := range keywords {
		if strings.Contains(joined, " "+k+" ") {
			return true
		}
	}
	return false
}
