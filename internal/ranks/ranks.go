// Package ranks maps a user's total likes onto the cosmetic title shown
// next to their name.
package ranks

// Tier is one step of the rank ladder.
type Tier struct {
	Title      string `json:"title"`
	MinLikes   int64  `json:"min_likes"`
	BadgeColor string `json:"badge_color"`
}

// tiers is ordered by MinLikes ascending; For relies on it.
var tiers = []Tier{
	{Title: "Dry Brain", MinLikes: 0, BadgeColor: "bg-gray-400"},
	{Title: "Damp Thinker", MinLikes: 10, BadgeColor: "bg-blue-300"},
	{Title: "Prickly Philosopher", MinLikes: 50, BadgeColor: "bg-green-400"},
	{Title: "Lather Legend", MinLikes: 80, BadgeColor: "bg-pink-400"},
	{Title: "Loofah Lord", MinLikes: 150, BadgeColor: "bg-purple-400"},
	{Title: "Soapbox Superstar", MinLikes: 300, BadgeColor: "bg-yellow-400"},
	{Title: "Deep-Sea Diver", MinLikes: 500, BadgeColor: "bg-blue-600"},
	{Title: "Soggy Sage", MinLikes: 1000, BadgeColor: "bg-emerald-600"},
	{Title: "Prune-Fingered Prophet", MinLikes: 2500, BadgeColor: "bg-indigo-600"},
	{Title: "The Big Drip", MinLikes: 5000, BadgeColor: "bg-ponder-blue"},
}

var descriptions = map[string]string{
	"Dry Brain":              "Just stepped into the bathroom.",
	"Damp Thinker":           "You’ve got a little moisture, but no splash yet.",
	"Prickly Philosopher":    "The ideas are starting to tingle.",
	"Lather Legend":          "You’re really starting to foam up some genius.",
	"Loofah Lord":            "You’ve scrubbed away the surface-level thoughts.",
	"Soapbox Superstar":      "People are actually stopping to listen to you.",
	"Deep-Sea Diver":         "You’re thinking deeper than the average human.",
	"Soggy Sage":             "You have spent too much time in the shower.",
	"Prune-Fingered Prophet": "Your skin is wrinkled, but your mind is sharp.",
	"The Big Drip":           "You are the undisputed King/Queen of the Dome.",
}

// All returns a copy of the ladder, lowest tier first.
func All() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// For returns the tier with the highest threshold not above totalLikes.
// Negative counts are treated as zero.
func For(totalLikes int64) Tier {
	if totalLikes < 0 {
		totalLikes = 0
	}
	for i := len(tiers) - 1; i >= 0; i-- {
		if totalLikes >= tiers[i].MinLikes {
			return tiers[i]
		}
	}
	return tiers[0]
}

// Next returns the tier after the one totalLikes currently holds and how many
// more likes reach it. ok is false at the top of the ladder.
func Next(totalLikes int64) (tier Tier, remaining int64, ok bool) {
	if totalLikes < 0 {
		totalLikes = 0
	}
	for _, t := range tiers {
		if t.MinLikes > totalLikes {
			return t, t.MinLikes - totalLikes, true
		}
	}
	return Tier{}, 0, false
}

// Description returns the flavour text for a title, or "" if the title is unknown.
func Description(title string) string {
	return descriptions[title]
}
