// Package qualification classifies prospects into a category and tier and
// recommends the sales call that fits them.
package qualification

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"leadengine/models"
)

// FormData is the intake form part of a qualification request.
type FormData struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	CompanySize Amount `json:"companySize"`
	Revenue     Amount `json:"revenue"`
	Inquiry     string `json:"inquiry"`
	Message     string `json:"message"`
}

// CompanyInfo is enrichment data about the prospect's organisation.
type CompanyInfo struct {
	Name     string `json:"name"`
	Size     Amount `json:"size"`
	Revenue  Amount `json:"revenue"`
	Industry string `json:"industry"`
}

// QualificationInput is the loose bag of evidence clients post. Every part is
// optional.
type QualificationInput struct {
	AssessmentResponses map[string]interface{} `json:"assessmentResponses,omitempty"`
	PageViews           []string               `json:"pageViews,omitempty"`
	Downloads           []string               `json:"downloads,omitempty"`
	FormData            *FormData              `json:"formData,omitempty"`
	CompanyInfo         *CompanyInfo           `json:"companyInfo,omitempty"`
	UTMData             map[string]string      `json:"utmData,omitempty"`
	Source              string                 `json:"source,omitempty"`
}

// Email returns the submitted email, lower-cased.
func (in QualificationInput) Email() string {
	if in.FormData == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(in.FormData.Email))
}

// Signals converts the input into signals in canonical order: assessment,
// page views, form, company, downloads, attribution.
func (in QualificationInput) Signals() []Signal {
	var signals []Signal

	if len(in.AssessmentResponses) > 0 {
		signals = append(signals, assessmentSignalFrom(in.AssessmentResponses))
	}
	if len(in.PageViews) > 0 {
		signals = append(signals, PageViewSignal{URLs: in.PageViews})
	}
	if in.FormData != nil {
		signals = append(signals, FormSignal{Role: in.FormData.Role, Inquiry: in.FormData.Inquiry})
	}

	company := CompanySignal{}
	if in.FormData != nil {
		company.Size, company.Revenue = in.FormData.CompanySize, in.FormData.Revenue
	}
	if in.CompanyInfo != nil {
		if in.CompanyInfo.Size != "" {
			company.Size = in.CompanyInfo.Size
		}
		if in.CompanyInfo.Revenue != "" {
			company.Revenue = in.CompanyInfo.Revenue
		}
	}
	if company.Size != "" || company.Revenue != "" {
		signals = append(signals, company)
	}

	if len(in.Downloads) > 0 {
		signals = append(signals, DownloadSignal{Resources: in.Downloads})
	}
	if in.Source != "" || len(in.UTMData) > 0 {
		signals = append(signals, UTMSignal{Source: in.Source, Params: in.UTMData})
	}
	return signals
}

// assessmentSignalFrom reads the free-form response map of an assessment.
func assessmentSignalFrom(responses map[string]interface{}) AssessmentSignal {
	s := AssessmentSignal{Type: stringValue(responses["type"])}
	s.AIFamiliarity = intValue(responses["ai_familiarity"])
	s.DataReadiness = intValue(responses["data_readiness"])
	s.BudgetAllocated = boolValue(responses["budget_allocated"])
	s.LeadershipSupport = boolValue(responses["leadership_support"])
	s.TimelineMonths = timelineMonths(responses["timeline"])
	return s
}

// QualifyProspect scores and classifies a fresh prospect from the input.
func QualifyProspect(in QualificationInput) *models.Prospect {
	p := Qualify(in.Signals()...)
	if in.FormData != nil {
		p.Email = strings.ToLower(strings.TrimSpace(in.FormData.Email))
		p.Name = strings.TrimSpace(in.FormData.Name)
		p.Company = strings.TrimSpace(in.FormData.Company)
		p.Role = strings.TrimSpace(in.FormData.Role)
	}
	if p.Company == "" && in.CompanyInfo != nil {
		p.Company = in.CompanyInfo.Name
	}
	return p
}

// Qualify folds signals, in order, into a new prospect.
func Qualify(signals ...Signal) *models.Prospect {
	acc := &accumulator{category: models.CategoryUndetermined}
	for _, s := range signals {
		s.apply(acc)
	}
	if acc.category == "" {
		acc.category = models.CategoryUndetermined
	}

	now := time.Now()
	p := &models.Prospect{
		ID:               uuid.New().String(),
		LeadScore:        acc.score,
		Category:         acc.category,
		Interests:        acc.interests,
		Source:           acc.source,
		CreatedAt:        now,
		LastEngagementAt: now,
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if len(acc.utm) > 0 {
		if raw, err := json.Marshal(acc.utm); err == nil {
			p.UTMData = datatypes.JSON(raw)
		}
	}

	p.Tier = AssignTier(DefaultTierRules, p.Category, p.LeadScore)
	if p.Tier == models.TierOne || p.Tier == models.TierTwo {
		p.Status = models.StatusQualified
	} else {
		p.Status = models.StatusNew
	}
	return p
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return strings.Trim(string(b), `"`)
	}
}

func intValue(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case json.Number:
		n, _ := t.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}

func boolValue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true", "y", "1":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

// urgentAnswer matches whole words, so "know" is not "now" and "not now"
// is not urgent.
func urgentAnswer(s string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	urgent := false
	for _, w := range words {
		switch {
		case w == "now", w == "asap", strings.HasPrefix(w, "immediate"):
			urgent = true
		case w == "not", w == "no", w == "never", w == "don't", w == "dont":
			return false
		}
	}
	return urgent
}

// timelineMonths reads answers such as 3, "3", "immediately", "3-6 months"
// or "within 6 months". Unknown answers return 0.
func timelineMonths(v interface{}) int {
	if n := intValue(v); n > 0 {
		return n
	}
	s := strings.ToLower(stringValue(v))
	if s == "" {
		return 0
	}
	if urgentAnswer(s) {
		return 1
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	n, _ := strconv.Atoi(digits.String())
	if strings.Contains(s, "year") {
		n *= 12
	}
	return n
}
