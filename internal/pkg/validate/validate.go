package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	digitsRe         = regexp.MustCompile(`^[0-9]{7,15}$`)
	redditUsernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	phoneNoise       = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return digitsRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("reddit_username", func(fl validator.FieldLevel) bool {
		return redditUsernameRe.MatchString(fl.Field().String())
	})
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, message(fe))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "phone":
		return fmt.Sprintf("%s must contain 7 to 15 digits", fe.Field())
	case "reddit_username":
		return fmt.Sprintf("%s must be 3 to 20 letters, digits, '_' or '-'", fe.Field())
	default:
		return fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag())
	}
}

// NormalizePhone strips common separators and a leading '+' so that
// "+1 (555) 123-4567" and "15551234567" compare equal.
func NormalizePhone(phone string) string {
	return strings.TrimPrefix(phoneNoise.Replace(strings.TrimSpace(phone)), "+")
}

// NormalizeEmail trims and lower-cases an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRedditUsername trims whitespace and an optional "u/" prefix.
func NormalizeRedditUsername(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	return strings.TrimPrefix(name, "u/")
}
