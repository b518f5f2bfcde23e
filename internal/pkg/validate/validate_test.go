package validate

import (
	"testing"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_ValidSubmission(t *testing.T) {
	err := Struct(domain.QualificationSubmission{
		Email:          "test@example.com",
		Phone:          "1234567890",
		RedditUsername: "testuser",
	})
	assert.NoError(t, err)
}

func TestStruct_MissingFieldsUseJSONNames(t *testing.T) {
	err := Struct(domain.QualificationSubmission{})
	require.Error(t, err)
	assert.Equal(t, "email is required; phone is required; redditUsername is required", err.Error())
}

func TestStruct_BadEmailAndPhone(t *testing.T) {
	err := Struct(domain.QualificationSubmission{
		Email:          "not-an-email",
		Phone:          "12ab",
		RedditUsername: "testuser",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "phone must contain 7 to 15 digits")
}

func TestStruct_RedditUsernameRules(t *testing.T) {
	cases := map[string]bool{
		"ab":                    false,
		"valid_name-1":          true,
		"has space":             false,
		"abcdefghijklmnopqrstu": false,
	}
	for name, ok := range cases {
		err := Struct(domain.QualificationSubmission{Email: "a@b.co", Phone: "1234567", RedditUsername: name})
		assert.Equal(t, ok, err == nil, name)
	}
}

func TestStruct_CheckUserRequestAllowsEitherField(t *testing.T) {
	assert.NoError(t, Struct(domain.CheckUserRequest{Email: "a@b.co"}))
	assert.NoError(t, Struct(domain.CheckUserRequest{Phone: "5551234567"}))
	assert.Error(t, Struct(domain.CheckUserRequest{Email: "nope"}))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "15551234567", NormalizePhone(" +1 (555) 123-4567 "))
	assert.Equal(t, "1234567890", NormalizePhone("123.456.7890"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "test@example.com", NormalizeEmail("  Test@Example.COM "))
}

func TestNormalizeRedditUsername(t *testing.T) {
	assert.Equal(t, "spez", NormalizeRedditUsername("u/spez"))
	assert.Equal(t, "spez", NormalizeRedditUsername(" /u/spez"))
	assert.Equal(t, "spez", NormalizeRedditUsername("spez"))
}
