package domain

// Company is a marketplace entry. Locked companies are listed but not yet
// open to applicants.
type Company struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PayRate     string `json:"payRate"`
	Bonus       string `json:"bonus,omitempty"`
	Locked      bool   `json:"locked"`
}

// Match returns the company in the shape returned to a qualifying applicant.
func (c Company) Match() *MatchedCompany {
	return &MatchedCompany{Name: c.Name, Slug: c.Slug, PayRate: c.PayRate, Bonus: c.Bonus}
}
