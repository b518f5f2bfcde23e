package domain

// QualificationSubmission is the form payload for POST /api/social-qualify-form.
type QualificationSubmission struct {
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,phone"`
	RedditUsername string `json:"redditUsername" validate:"required,reddit_username"`
}

// CheckUserRequest is the payload for POST /api/check-user-exists.
type CheckUserRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

// ContractorRequest is the payload for POST /api/contractor-request.
type ContractorRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// MatchedCompany is the payer assigned to a qualifying submission.
type MatchedCompany struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	PayRate string `json:"payRate"`
	Bonus   string `json:"bonus,omitempty"`
}

// QualificationOutcome is what a successful submission resolves to.
// MatchedCompany is nil when the applicant did not match any company.
type QualificationOutcome struct {
	Message        string          `json:"message"`
	UserID         string          `json:"userId"`
	MatchedCompany *MatchedCompany `json:"matchedCompany,omitempty"`
}
