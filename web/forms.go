package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// formErrors maps a form field name to its error message.
type formErrors map[string]string

func (e formErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for field, or "".
func (e formErrors) Get(field string) string {
	return e[field]
}

type aboutForm struct {
	Paragraph string `schema:"paragraph" validate:"required,max=400"`
}

type skillForm struct {
	Skill string `schema:"skill" validate:"required,max=100"`
}

type reasonForm struct {
	Purpose string `schema:"purpose" validate:"required,max=25"`
}

type messageForm struct {
	Reason  int64  `schema:"reason" validate:"required,gt=0"`
	Name    string `schema:"name" validate:"required,max=50"`
	Email   string `schema:"email" validate:"required,email,max=254"`
	Message string `schema:"message" validate:"required"`
}

type pastWorkForm struct {
	Name        string `schema:"name" validate:"required,max=50"`
	Description string `schema:"description" validate:"required,max=75"`
	GithubLink  string `schema:"github_link" validate:"required,weblink,max=100"`
	PageLink    string `schema:"page_link" validate:"omitempty,weblink,max=100"`
}

type loginForm struct {
	Username string `schema:"username" validate:"required"`
	Password string `schema:"password" validate:"required"`
	Next     string `schema:"next"`
}

// formDecoder turns posted forms into structs and validates them.
type formDecoder struct {
	decoder  *schema.Decoder
	validate *validator.Validate
}

func newFormDecoder() *formDecoder {
	d := schema.NewDecoder()
	// the CSRF token and submit buttons travel with every form
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter("", func(s string) reflect.Value {
		return reflect.ValueOf(strings.TrimSpace(s))
	})

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// RegisterValidation only fails on an empty tag or a nil func
	_ = v.RegisterValidation("weblink", isWebLink)

	return &formDecoder{decoder: d, validate: v}
}

// decode parses the request form into dst. A non-nil error means the request
// itself was unusable; field problems are reported through formErrors.
func (f *formDecoder) decode(r *http.Request, dst any) (formErrors, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	errs := formErrors{}
	if err := f.decoder.Decode(dst, r.PostForm); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return nil, fmt.Errorf("decode form: %w", err)
		}
		for field := range multi {
			errs[field] = "Enter a valid value."
		}
	}

	if err := f.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate form: %w", err)
		}
		for _, fe := range verrs {
			if !errs.Has(fe.Field()) {
				errs[fe.Field()] = fieldMessage(fe)
			}
		}
	}

	return errs, nil
}

// webSchemes are the link schemes a past work may point to.
var webSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}

// webLink accepts absolute http, https, ftp and ftps URLs with a host.
func webLink(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return webSchemes[strings.ToLower(u.Scheme)] && u.Host != ""
}

func isWebLink(fl validator.FieldLevel) bool {
	return webLink(fl.Field().String())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "email":
		return "Enter a valid email address."
	case "url", "weblink":
		return "Enter a valid URL."
	case "gt":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}
