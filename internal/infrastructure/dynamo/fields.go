package dynamo

// Attribute and index names of the applicants table.
const (
	fieldApplicantID             = "applicant_id"
	fieldEmail                   = "email"
	fieldPhone                   = "phone"
	fieldCreatedAt               = "created_at"
	fieldUpdatedAt               = "updated_at"
	fieldContractorRequests      = "contractor_requests"
	fieldLastContractorRequestAt = "last_contractor_request_at"

	indexEmail = "email-index"
	indexPhone = "phone-index"
)
