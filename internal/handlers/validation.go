package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const isoDateTag = "isodate"

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(isoDateTag, func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := time.Parse(time.DateOnly, value)
		return err == nil
	})
	_ = validate.RegisterTranslation(isoDateTag, translator,
		func(ut ut.Translator) error {
			return ut.Add(isoDateTag, "{0} must be a date in YYYY-MM-DD format", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(isoDateTag, fe.Field())
			return msg
		})
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// the response is already written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Translate(translator)
			}
			respondWithFieldErrors(w, fields)
			return false
		}
		respondWithError(w, http.StatusBadRequest, ErrValidationFailed, "Validation error", err)
		return false
	}
	return true
}
