package qualification

import "leadengine/models"

// TierRule is one entry of the ordered tier cascade.
type TierRule struct {
	Name  string
	Match func(category models.Category, score int) bool
	Tier  models.Tier
}

func categoryAtLeast(c models.Category, min int) func(models.Category, int) bool {
	return func(category models.Category, score int) bool {
		return category == c && score >= min
	}
}

func scoreAtLeast(min int) func(models.Category, int) bool {
	return func(_ models.Category, score int) bool {
		return score >= min
	}
}

// DefaultTierRules checks category specific thresholds before the generic
// score bands. The order is part of the contract.
var DefaultTierRules = []TierRule{
	{Name: "investment_fund_20", Match: categoryAtLeast(models.CategoryInvestmentFund, 20), Tier: models.TierOne},
	{Name: "enterprise_ai_35", Match: categoryAtLeast(models.CategoryEnterpriseAI, 35), Tier: models.TierOne},
	{Name: "enterprise_ai_25", Match: categoryAtLeast(models.CategoryEnterpriseAI, 25), Tier: models.TierTwo},
	{Name: "ministry_coaching_30", Match: categoryAtLeast(models.CategoryMinistryCoaching, 30), Tier: models.TierTwo},
	{Name: "ministry_coaching_20", Match: categoryAtLeast(models.CategoryMinistryCoaching, 20), Tier: models.TierThree},
	{Name: "strategic_consulting_25", Match: categoryAtLeast(models.CategoryStrategicConsulting, 25), Tier: models.TierTwo},
	{Name: "score_40", Match: scoreAtLeast(40), Tier: models.TierOne},
	{Name: "score_25", Match: scoreAtLeast(25), Tier: models.TierTwo},
	{Name: "score_15", Match: scoreAtLeast(15), Tier: models.TierThree},
}

// AssignTier returns the tier of the first matching rule, or tier_4.
func AssignTier(rules []TierRule, category models.Category, score int) models.Tier {
	for _, r := range rules {
		if r.Match(category, score) {
			return r.Tier
		}
	}
	return models.TierFour
}
