package handler

import (
	"context"
	"net/http"

	"github.com/fairdatause/qualify-api/internal/domain"
)

type qualifyService interface {
	CheckUserExists(ctx context.Context, req domain.CheckUserRequest) (bool, error)
	SubmitQualification(ctx context.Context, sub domain.QualificationSubmission) (*domain.QualificationOutcome, error)
	RequestContractorIntroduction(ctx context.Context, userID string) (string, error)
	Companies() []domain.Company
}

// QualifyHandler serves the qualification workflow endpoints.
type QualifyHandler struct {
	svc qualifyService
}

func NewQualifyHandler(svc qualifyService) *QualifyHandler {
	return &QualifyHandler{svc: svc}
}

// submissionData is the data member of a successful submission.
type submissionData struct {
	UserID         string                 `json:"userId"`
	MatchedCompany *domain.MatchedCompany `json:"matchedCompany"`
}

type companiesData struct {
	Companies []domain.Company `json:"companies"`
}

// CheckUserExists handles POST /api/check-user-exists.
func (h *QualifyHandler) CheckUserExists(r *http.Request) Result {
	var req domain.CheckUserRequest
	if err := decode(r, &req); err != nil {
		return Err(err)
	}
	exists, err := h.svc.CheckUserExists(r.Context(), req)
	if err != nil {
		return Err(err)
	}
	return Ok(UserExistsEnvelope{Success: true, UserExists: exists})
}

// Submit handles POST /api/social-qualify-form. matchedCompany is null when
// the applicant did not match.
func (h *QualifyHandler) Submit(r *http.Request) Result {
	var sub domain.QualificationSubmission
	if err := decode(r, &sub); err != nil {
		return Err(err)
	}
	out, err := h.svc.SubmitQualification(r.Context(), sub)
	if err != nil {
		return Err(err)
	}
	return Ok(Envelope{
		Success: true,
		Message: out.Message,
		Data:    submissionData{UserID: out.UserID, MatchedCompany: out.MatchedCompany},
	})
}

// RequestContractor handles POST /api/contractor-request.
func (h *QualifyHandler) RequestContractor(r *http.Request) Result {
	var req domain.ContractorRequest
	if err := decode(r, &req); err != nil {
		return Err(err)
	}
	msg, err := h.svc.RequestContractorIntroduction(r.Context(), req.UserID)
	if err != nil {
		return Err(err)
	}
	return Ok(Envelope{Success: true, Message: msg})
}

// Companies handles GET /api/companies.
func (h *QualifyHandler) Companies(_ *http.Request) Result {
	return Ok(Envelope{Success: true, Data: companiesData{Companies: h.svc.Companies()}})
}
