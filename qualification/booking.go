package qualification

import (
	"net/url"
	"strconv"

	"leadengine/models"
)

// Call types offered by the booking engine.
const (
	CallExecutiveStrategy = "executive_strategy"
	CallDivineStrategy    = "divine_strategy"
	CallAIImplementation  = "ai_implementation"
	CallGeneralDiscovery  = "general_discovery"
)

// Booking priorities
const (
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityStandard = "standard"
)

// BookingLinks are the scheduling pages for each call type.
type BookingLinks struct {
	ExecutiveStrategy string
	DivineStrategy    string
	AIImplementation  string
	GeneralDiscovery  string
}

func (l BookingLinks) forCall(callType string) string {
	switch callType {
	case CallExecutiveStrategy:
		return l.ExecutiveStrategy
	case CallDivineStrategy:
		return l.DivineStrategy
	case CallAIImplementation:
		return l.AIImplementation
	default:
		return l.GeneralDiscovery
	}
}

// BookingRecommendation is the suggested sales call for a prospect.
type BookingRecommendation struct {
	CallType         string   `json:"callType"`
	CalendlyURL      string   `json:"calendlyUrl"`
	PreparationGuide []string `json:"preparationGuide"`
	Priority         string   `json:"priority"`
	EstimatedValue   string   `json:"estimatedValue"`
}

// BookingRule is one entry of the ordered booking cascade. Recommend fills
// everything except the scheduling URL.
type BookingRule struct {
	Name      string
	Match     func(p *models.Prospect) bool
	Recommend func(p *models.Prospect) BookingRecommendation
}

var preparationGuides = map[string][]string{
	CallExecutiveStrategy: {
		"Summarize your current portfolio or organisation-wide AI initiatives",
		"List the two or three decisions you need to make this quarter",
		"Bring the stakeholders who own budget and delivery",
	},
	CallDivineStrategy: {
		"Reflect on the vision you believe you are called to build",
		"Note where your ministry or business feels stuck today",
		"Come ready to pray and plan the next ninety days",
	},
	CallAIImplementation: {
		"Review your assessment results and weakest dimension",
		"Identify one process you would like to automate first",
		"Gather rough numbers on team size, data sources and budget",
	},
	CallGeneralDiscovery: {
		"Share what prompted you to reach out",
		"Think about what success looks like in six months",
	},
}

func recommendation(callType, priority, value string) BookingRecommendation {
	return BookingRecommendation{
		CallType:         callType,
		PreparationGuide: preparationGuides[callType],
		Priority:         priority,
		EstimatedValue:   value,
	}
}

// DefaultBookingRules is evaluated in order. The first match wins.
var DefaultBookingRules = []BookingRule{
	{
		Name: CallExecutiveStrategy,
		Match: func(p *models.Prospect) bool {
			return p.Category == models.CategoryInvestmentFund ||
				(p.Tier == models.TierOne && p.LeadScore >= 40)
		},
		Recommend: func(*models.Prospect) BookingRecommendation {
			return recommendation(CallExecutiveStrategy, PriorityHigh, "$100,000+")
		},
	},
	{
		Name: CallDivineStrategy,
		Match: func(p *models.Prospect) bool {
			return p.Category == models.CategoryMinistryCoaching || p.HasInterest("divine_strategy")
		},
		Recommend: func(p *models.Prospect) BookingRecommendation {
			if p.Tier == models.TierTwo {
				return recommendation(CallDivineStrategy, PriorityHigh, "$25,000")
			}
			return recommendation(CallDivineStrategy, PriorityMedium, "$5,000")
		},
	},
	{
		Name: CallAIImplementation,
		Match: func(p *models.Prospect) bool {
			return p.Category == models.CategoryEnterpriseAI && p.LeadScore >= 25
		},
		Recommend: func(p *models.Prospect) BookingRecommendation {
			if p.Tier == models.TierOne {
				return recommendation(CallAIImplementation, PriorityHigh, "$75,000")
			}
			return recommendation(CallAIImplementation, PriorityMedium, "$25,000")
		},
	},
}

// GetBookingRecommendation applies DefaultBookingRules to p.
func GetBookingRecommendation(p *models.Prospect, links BookingLinks) BookingRecommendation {
	return Recommend(DefaultBookingRules, p, links)
}

// Recommend returns the recommendation of the first matching rule, falling
// back to a general discovery call.
func Recommend(rules []BookingRule, p *models.Prospect, links BookingLinks) BookingRecommendation {
	rec := recommendation(CallGeneralDiscovery, PriorityStandard, "$0")
	if p != nil {
		for _, r := range rules {
			if r.Match(p) {
				rec = r.Recommend(p)
				break
			}
		}
	}
	rec.CalendlyURL = links.forCall(rec.CallType)
	return rec
}

// GenerateTrackingURL appends attribution parameters to base. Existing query
// parameters are kept; empty source and medium default to website/booking.
func GenerateTrackingURL(base string, p *models.Prospect, source, medium string) string {
	if source == "" {
		source = "website"
	}
	if medium == "" {
		medium = "booking"
	}

	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("utm_source", source)
	q.Set("utm_medium", medium)
	if p != nil {
		q.Set("utm_campaign", string(p.Category))
		q.Set("utm_content", string(p.Tier))
		q.Set("lead_score", strconv.Itoa(p.LeadScore))
		q.Set("prospect_id", p.ID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
