package qualify

import "github.com/fairdatause/qualify-api/internal/domain"

// Platform is a social network an applicant can qualify with.
type Platform string

const PlatformReddit Platform = "reddit"

var catalog = []domain.Company{
	{
		Name:        "Silicon Valley Consulting",
		Slug:        "silicon-valley-consulting",
		Description: "Pays verified Reddit account holders to take part in consulting research.",
		PayRate:     "$2.00 per hour",
		Bonus:       "$500",
	},
	{
		Name:        "Tech Innovations Corp",
		Slug:        "tech-innovations-corp",
		Description: "Product feedback panels for early-stage software.",
		PayRate:     "Coming soon",
		Locked:      true,
	},
	{
		Name:        "Digital Marketing Pro",
		Slug:        "digital-marketing-pro",
		Description: "Campaign testing with established social accounts.",
		PayRate:     "Coming soon",
		Locked:      true,
	},
}

// rateTable names the company each platform's accounts are matched with.
var rateTable = map[Platform]string{
	PlatformReddit: "silicon-valley-consulting",
}

// Companies returns a copy of the marketplace catalog.
func Companies() []domain.Company {
	out := make([]domain.Company, len(catalog))
	copy(out, catalog)
	return out
}

// CompanyBySlug looks a catalog entry up by slug.
func CompanyBySlug(slug string) (domain.Company, bool) {
	for _, c := range catalog {
		if c.Slug == slug {
			return c, true
		}
	}
	return domain.Company{}, false
}

// EvaluateEligibility picks the company for a verified submission, or nil.
// Reddit is the only platform today, and every verified account matches.
func EvaluateEligibility(sub domain.QualificationSubmission) *domain.MatchedCompany {
	if sub.RedditUsername == "" {
		return nil
	}
	c, ok := CompanyBySlug(rateTable[PlatformReddit])
	if !ok || c.Locked {
		return nil
	}
	return c.Match()
}
