// Package client is a typed client for the qualification HTTP API.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// APIError is a response the server answered with success:false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetJSONMarshaler(json.Marshal).
			SetJSONUnmarshaler(json.Unmarshal).
			SetHeader("Content-Type", "application/json"),
	}
}

// SetAccessToken attaches a bearer token to every later request.
func (c *Client) SetAccessToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) CheckUserExists(ctx context.Context, email, phone string) (bool, error) {
	res, err := c.post(ctx, "/api/check-user-exists", domain.CheckUserRequest{Email: email, Phone: phone})
	if err != nil {
		return false, err
	}
	return res.Get("userExists").Bool(), nil
}

func (c *Client) SubmitQualification(ctx context.Context, sub domain.QualificationSubmission) (*domain.QualificationOutcome, error) {
	res, err := c.post(ctx, "/api/social-qualify-form", sub)
	if err != nil {
		return nil, err
	}
	out := &domain.QualificationOutcome{
		Message: res.Get("message").String(),
		UserID:  res.Get("data.userId").String(),
	}
	if mc := res.Get("data.matchedCompany"); mc.IsObject() {
		var m domain.MatchedCompany
		if err := json.Unmarshal([]byte(mc.Raw), &m); err != nil {
			return nil, fmt.Errorf("decode matched company: %w", err)
		}
		out.MatchedCompany = &m
	}
	return out, nil
}

func (c *Client) RequestContractor(ctx context.Context, userID string) (string, error) {
	res, err := c.post(ctx, "/api/contractor-request", domain.ContractorRequest{UserID: userID})
	if err != nil {
		return "", err
	}
	return res.Get("message").String(), nil
}

func (c *Client) Companies(ctx context.Context) ([]domain.Company, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/companies")
	if err != nil {
		return nil, err
	}
	res, err := parse(resp)
	if err != nil {
		return nil, err
	}
	var companies []domain.Company
	if err := json.Unmarshal([]byte(res.Get("data.companies").Raw), &companies); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	return companies, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (gjson.Result, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(path)
	if err != nil {
		return gjson.Result{}, err
	}
	return parse(resp)
}

// parse returns the envelope of a successful response, or an *APIError.
func parse(resp *resty.Response) (gjson.Result, error) {
	res := gjson.Parse(resp.String())
	if resp.IsError() || !res.Get("success").Bool() {
		msg := res.Get("message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return gjson.Result{}, &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return res, nil
}
