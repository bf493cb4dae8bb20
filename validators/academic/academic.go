package academicValidator

import (
	"strconv"
	"strings"

	"lms/middleware"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

// NodeRequest is the body of every academic create/update call. ParentID is read from
// the parent key of the entity (universityId, collegeId or departmentId).
type NodeRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	ParentID uint   `json:"-"`
}

// Node validates a university/college/department/level body. parentKey is empty for
// universities. On create the parent is mandatory; on update it is optional (a move).
func Node(parentKey string, create bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := map[string]interface{}{}
		if err := c.BodyParser(&body); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData := new(NodeRequest)
		if name, ok := body["name"].(string); ok {
			reqData.Name = strings.Join(strings.Fields(name), " ")
		}

		errors := shared.Struct(reqData)
		if errors == nil {
			errors = map[string]string{}
		}

		if parentKey != "" {
			raw, present := body[parentKey]
			id, valid := toID(raw)
			switch {
			case present && !valid:
				errors[parentKey] = parentKey + " must be a positive integer"
			case !present && create:
				errors[parentKey] = parentKey + " is required"
			default:
				reqData.ParentID = id
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedNode", reqData)
		return c.Next()
	}
}

func toID(v interface{}) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if n >= 1 && n == float64(uint(n)) {
			return uint(n), true
		}
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		return uint(id), err == nil && id > 0
	}
	return 0, false
}
