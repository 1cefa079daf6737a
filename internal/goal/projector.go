package goal

// DefaultTarget is the follower goal used when none is configured.
const DefaultTarget = 200

// Tier is the urgency bucket computed from followers remaining to goal.
type Tier string

const (
	TierNormal Tier = "normal"
	TierClose  Tier = "close"
	TierUrgent Tier = "urgent"
)

// Banner is the headline message chosen for the widget title.
type Banner string

const (
	BannerDefault     Banner = "default"
	BannerHalfway     Banner = "halfway"
	BannerAlmostThere Banner = "almost_there"
	BannerAchieved    Banner = "achieved"
)

// Projection is the derived, display-ready snapshot of goal progress.
// It carries no independent state: everything is computed from
// (current, target) plus the optional end date.
type Projection struct {
	Current    int     `json:"current"`
	Target     int     `json:"target"`
	Percentage float64 `json:"percentage"`
	Remaining  int     `json:"remaining"`
	Tier       Tier    `json:"tier"`
	Banner     Banner  `json:"banner"`
	Achieved   bool    `json:"achieved"`
	EndsAt     string  `json:"ends_at,omitempty"`
}

// Project derives a Projection from the current count and target.
// Deterministic and side-effect free. Targets that are not positive are
// rejected with ErrInvalidTarget rather than guessing a fallback.
func Project(current, target int, endsAt string) (Projection, error) {
	if target <= 0 {
		return Projection{}, ErrInvalidTarget
	}
	if current < 0 {
		current = 0
	}

	percentage := 100 * float64(current) / float64(target)
	if percentage > 100 {
		percentage = 100
	}

	remaining := target - current
	if remaining < 0 {
		remaining = 0
	}

	tier := TierNormal
	switch {
	case remaining <= 10:
		tier = TierUrgent
	case remaining <= 25:
		tier = TierClose
	}

	banner := BannerDefault
	switch {
	case percentage >= 100:
		banner = BannerAchieved
	case percentage >= 75:
		banner = BannerAlmostThere
	case percentage >= 50:
		banner = BannerHalfway
	}

	return Projection{
		Current:    current,
		Target:     target,
		Percentage: percentage,
		Remaining:  remaining,
		Tier:       tier,
		Banner:     banner,
		Achieved:   percentage >= 100,
		EndsAt:     endsAt,
	}, nil
}
