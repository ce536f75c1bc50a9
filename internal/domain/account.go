package domain

import "strings"

// PlanTier enumerates subscription tiers.
type PlanTier string

const (
	PlanTierFree     PlanTier = "free"
	PlanTierPro      PlanTier = "pro"
	PlanTierBusiness PlanTier = "business"
)

// Account represents a signed-in identity. The JSON shape matches the record
// persisted under the session store's account key, so stored values written by
// older front ends keep loading.
type Account struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Plan      PlanTier `json:"plan"`
	TimeUsed  float64  `json:"timeUsed"`  // minutes
	TimeLimit float64  `json:"timeLimit"` // minutes
}

// IsFree reports whether the account is on the free tier.
func (a Account) IsFree() bool {
	return a.Plan == PlanTierFree
}

// DisplayNameFromEmail derives a display name from an email address, used by
// the mocked login flow when no name was provided.
func DisplayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
