package validator

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// V10ValidationError maps snake_case field names to English messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	keys := lo.Keys(vs)
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+vs[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// customRule is a tag the vault adds on top of the built-in set.
type customRule struct {
	tag     string
	message string
	fn      validator.Func
}

var customRules = []customRule{
	{
		// sha1, sha256 and sha512 in any case, with or without a dash.
		tag:     "otpalgo",
		message: "{0} must be one of sha1, sha256, sha512",
		fn: func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			if !ok {
				return false
			}
			return slices.Contains([]string{"sha1", "sha256", "sha512"},
				strings.Replace(strings.ToLower(s), "sha-", "sha", 1))
		},
	},
}

// V10Validator implements Validator on go-playground/validator with English
// messages.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	trans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, rule := range customRules {
		if err := registerRule(validate, trans, rule); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func registerRule(validate *validator.Validate, trans ut.Translator, rule customRule) error {
	if err := validate.RegisterValidation(rule.tag, rule.fn); err != nil {
		return err
	}

	return validate.RegisterTranslation(rule.tag, trans,
		func(t ut.Translator) error {
			return t.Add(rule.tag, rule.message, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("validator: translation failed", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}

// Validate returns V10ValidationError for tag violations and the raw error for
// anything else (for example a nil or non-struct argument).
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[lo.SnakeCase(fe.Field())] = fe.Translate(v.translator)
	}

	return out
}
