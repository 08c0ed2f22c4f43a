package webutil

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator is the application-wide validator instance.
var Validator *validator.Validate

// Trans translates validation errors into client-facing messages.
var Trans ut.Translator

var fieldNameTranslations = map[string]string{
	"course_ref":     "course",
	"lesson_ref":     "lesson",
	"wallet_address": "wallet address",
	"mint_address":   "mint address",
	"signature":      "transaction signature",
}

func init() {
	Validator = validator.New()

	// Report field names by their json tag, not the Go identifier.
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	var found bool
	Trans, found = uni.GetTranslator("en")
	if !found {
		log.Fatal("translator not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}

	registerTranslation := func(tag string, msg string) {
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			fieldName := fe.Field()
			translatedFieldName, ok := fieldNameTranslations[fieldName]
			if !ok {
				translatedFieldName = fieldName
			}
			t, _ := ut.T(tag, translatedFieldName)
			return t
		})
	}

	registerTranslation("required", "{0} is required.")

	Validator.RegisterTranslation("min", Trans, func(ut ut.Translator) error {
		return ut.Add("min", "{0} must be at least {1} characters long.", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		fieldName := fe.Field()
		translatedFieldName, ok := fieldNameTranslations[fieldName]
		if !ok {
			translatedFieldName = fieldName
		}
		t, _ := ut.T("min", translatedFieldName, fe.Param())
		return t
	})

	Validator.RegisterTranslation("max", Trans, func(ut ut.Translator) error {
		return ut.Add("max", "{0} must be at most {1} characters long.", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		fieldName := fe.Field()
		translatedFieldName, ok := fieldNameTranslations[fieldName]
		if !ok {
			translatedFieldName = fieldName
		}
		t, _ := ut.T("max", translatedFieldName, fe.Param())
		return t
	})
}
