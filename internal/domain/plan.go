package domain

// GuestMinuteLimit is the transcription allowance for anonymous users.
const GuestMinuteLimit = 30

// SignupMinuteLimit is the allowance granted by the mocked signup/login flow.
// It equals the free plan's ceiling; upgrades are inert stubs and never change
// a stored account.
const SignupMinuteLimit = 180

// Plan is a static catalog entry. Plans are reference data defined at process
// start and never persisted.
type Plan struct {
	Tier        PlanTier `json:"tier"`
	Name        string   `json:"name"`
	PriceUSD    float64  `json:"price_usd"`
	MinuteLimit float64  `json:"minute_limit"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular,omitempty"`
}

var plans = []Plan{
	{
		Tier:        PlanTierFree,
		Name:        "Free",
		PriceUSD:    0,
		MinuteLimit: 180,
		Features: []string{
			"3 hours of transcription",
			"Basic accuracy",
			"TXT downloads",
			"Email support",
		},
	},
	{
		Tier:        PlanTierPro,
		Name:        "Pro",
		PriceUSD:    19.99,
		MinuteLimit: 1200,
		Popular:     true,
		Features: []string{
			"20 hours of transcription",
			"High accuracy AI",
			"All download formats",
			"Priority support",
			"Batch processing",
			"Speaker identification",
		},
	},
	{
		Tier:        PlanTierBusiness,
		Name:        "Business",
		PriceUSD:    49.99,
		MinuteLimit: 6000,
		Features: []string{
			"100 hours of transcription",
			"Premium AI with timestamps",
			"All download formats",
			"24/7 priority support",
			"API access",
			"Team collaboration",
			"Custom integrations",
			"Advanced analytics",
		},
	},
}

// Plans returns the plan catalog in display order.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByTier looks up a catalog entry.
func PlanByTier(tier PlanTier) (Plan, bool) {
	for _, p := range plans {
		if p.Tier == tier {
			return p, true
		}
	}
	return Plan{}, false
}
