package shared

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"lms/middleware"
	"lms/storage"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	egMobileTag   = "eg_mobile"
	egMobileText  = "{0} must be a valid Egyptian mobile number"
	egMobileRegex = regexp.MustCompile(`^01[0125][0-9]{8}$`)

	courseTermTag    = "course_term"
	courseTermText   = "{0} must be FIRST, SECOND or SUMMER"
	courseStatusTag  = "course_status"
	courseStatusText = "{0} must be DRAFT, ACTIVE or INACTIVE"

	httpURLText = "{0} must be an http or https URL"

	requiredText = "{0} is required"
)

func init() {
	validate = validator.New()
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(egMobileTag, func(fl validator.FieldLevel) bool {
		return egMobileRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation(courseTermTag, oneOf("FIRST", "SECOND", "SUMMER"))
	_ = validate.RegisterValidation(courseStatusTag, oneOf("DRAFT", "ACTIVE", "INACTIVE"))

	registerTranslation(egMobileTag, egMobileText, false)
	registerTranslation(courseTermTag, courseTermText, false)
	registerTranslation(courseStatusTag, courseStatusText, false)
	registerTranslation("required", requiredText, true)
	registerTranslation("http_url", httpURLText, true)
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns a field → message map, or nil when s is valid.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		if _, seen := out[field]; !seen {
			out[field] = fe.Translate(translator)
		}
	}
	return out
}

// fieldPath turns "createCourse.cashNumbers[0]" into "cashNumbers[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// ParseBody parses and validates the request body into dst. It writes the error
// response itself and returns ok=false when the request must stop.
func ParseBody(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	if errs := Struct(dst); errs != nil {
		return false, middleware.ValidationErrorResponse(c, errs)
	}
	return true, nil
}

// ParamID reads a positive integer route parameter and stores it in Locals under the same name.
func ParamID(name, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Params(name))
		if raw == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, label+" ID is required!", nil)
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+label+" ID!", nil)
		}
		c.Locals(name, uint(id))
		return c.Next()
	}
}

// ID returns an id stored by ParamID.
func ID(c *fiber.Ctx, name string) uint {
	id, _ := c.Locals(name).(uint)
	return id
}

// ListQuery is the common pagination/search query of list endpoints.
type ListQuery struct {
	Page   int    `query:"page" json:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Search string `query:"search" json:"search" validate:"omitempty,max=100"`
}

// Offset applies defaults and returns the row offset.
func (q *ListQuery) Offset() int {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	return (q.Page - 1) * q.Limit
}

// List validates the pagination query and stores it as "listQuery".
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := new(ListQuery)
		if err := c.QueryParser(q); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		q.Search = strings.TrimSpace(q.Search)
		if errs := Struct(q); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		q.Offset()
		c.Locals("listQuery", q)
		return c.Next()
	}
}

// Query returns the ListQuery stored by List, with defaults when absent.
func Query(c *fiber.Ctx) *ListQuery {
	if q, ok := c.Locals("listQuery").(*ListQuery); ok {
		return q
	}
	q := &ListQuery{}
	q.Offset()
	return q
}

// QueryUint reads an optional positive integer query parameter. ok is false when
// the parameter is present but malformed.
func QueryUint(c *fiber.Ctx, name string) (value uint, ok bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// FormAsset builds the media asset of a request: an uploaded file under field wins
// over an already hosted url.
func FormAsset(c *fiber.Ctx, field, url string) storage.Asset {
	if fh, err := c.FormFile(field); err == nil && fh != nil {
		return storage.Pending(storage.FromMultipart(fh))
	}
	return storage.Stored(url)
}
