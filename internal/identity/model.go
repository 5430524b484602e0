package identity

import "time"

const (
	// TrustFloor and TrustCeil bound the trust score range.
	TrustFloor = 0.0
	TrustCeil  = 100.0

	// StartingTrust is the score assigned to freshly registered users.
	StartingTrust = 100.0
)

// User is the per-user mutable profile: credentials, trust reputation and the
// behavioral spending fingerprint. All trust mutations go through AdjustTrust
// so the [0,100] clamp lives in one place.
type User struct {
	Username     string
	PasswordHash []byte
	TrustScore   float64
	WarningCount int
	SafeStreak   int
	CreatedAt    time.Time

	// Behavioral fingerprint: running mean and population standard deviation
	// of historical approved amounts.
	AvgAmount            float64
	StdDevAmount         float64
	ApprovedCount        int
	FingerprintUpdatedAt time.Time
}

// AdjustTrust shifts the trust score by delta, clamped to [TrustFloor, TrustCeil].
func (u *User) AdjustTrust(delta float64) {
	u.TrustScore = ClampTrust(u.TrustScore + delta)
}

// ClampTrust bounds a trust score to the valid range.
func ClampTrust(score float64) float64 {
	if score < TrustFloor {
		return TrustFloor
	}
	if score > TrustCeil {
		return TrustCeil
	}
	return score
}

// Tier buckets the trust score into the rating shown on profiles.
func (u User) Tier() string {
	switch {
	case u.TrustScore > 90:
		return "Elite"
	case u.TrustScore > 60:
		return "Standard"
	default:
		return "High Risk"
	}
}

// Age returns how long the account has existed as of now.
func (u User) Age(now time.Time) time.Duration {
	return now.Sub(u.CreatedAt)
}

// Credentials is the signup/login request payload.
type Credentials struct {
	Username string
	Password string
}
