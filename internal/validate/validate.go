package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"alugserv/internal/apperr"
)

var (
	reTags = regexp.MustCompile(`<[^>]*>`)

	v     = validator.New(validator.WithRequiredStructEnabled())
	trans ut.Translator
)

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}
	err := v.RegisterTranslation("required", trans, func(t ut.Translator) error {
		return t.Add("required", "{0} is required", true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		msg, _ := t.T("required", fe.Field())
		return msg
	})
	if err != nil {
		panic(err)
	}
	// Messages name fields the way clients send them.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// Struct validates s against its `validate` tags. The first failing field
// becomes a validation error carrying its translated message.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation("%s", verrs[0].Translate(trans))
	}
	return apperr.Internal(err)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, v.Var(s, "email") == nil
}

// ID parses a positive numeric identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Clean trims s and strips markup tags.
func Clean(s string) string {
	return strings.TrimSpace(reTags.ReplaceAllString(s, ""))
}

// OneOf reports whether s is one of the allowed values.
func OneOf(s string, allowed ...string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
