package domain

import "time"

// Applicant is the persisted record of a qualification submission.
type Applicant struct {
	ApplicantID             string     `json:"id" dynamodbav:"applicant_id"`
	Email                   string     `json:"email" dynamodbav:"email"`
	Phone                   string     `json:"phone" dynamodbav:"phone"`
	RedditUsername          string     `json:"reddit_username" dynamodbav:"reddit_username"`
	MatchedCompanySlug      string     `json:"matched_company_slug,omitempty" dynamodbav:"matched_company_slug,omitempty"`
	ContractorRequests      int        `json:"contractor_requests" dynamodbav:"contractor_requests"`
	LastContractorRequestAt *time.Time `json:"last_contractor_request_at,omitempty" dynamodbav:"last_contractor_request_at,omitempty"`
	CreatedAt               time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt               time.Time  `json:"updated" dynamodbav:"updated_at"`
}
