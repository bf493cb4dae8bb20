package academicController

import (
	"errors"
	"strings"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	academicValidator "lms/validators/academic"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// node describes one level of the academic hierarchy. Every handler below works on
// any node; the route decides which one.
type node struct {
	label       string
	plural      string
	model       func() interface{}
	slice       func() interface{}
	build       func(name string, parentID uint) interface{}
	parentCol   string // empty for universities
	parentKey   string // query/body key of the parent id
	parentLabel string
	parent      func() interface{}
	preload     string
	deleteTx    func(tx *gorm.DB, ids []uint) ([]string, error)
}

var (
	University = &node{
		label:  "University",
		plural: "universities",
		model:  func() interface{} { return &models.University{} },
		slice:  func() interface{} { return &[]models.University{} },
		build: func(name string, _ uint) interface{} {
			return &models.University{Name: name}
		},
		deleteTx: utils.DeleteUniversitiesTx,
	}

	College = &node{
		label:  "College",
		plural: "colleges",
		model:  func() interface{} { return &models.College{} },
		slice:  func() interface{} { return &[]models.College{} },
		build: func(name string, parentID uint) interface{} {
			return &models.College{Name: name, UniversityID: parentID}
		},
		parentCol:   "university_id",
		parentKey:   "universityId",
		parentLabel: "University",
		parent:      func() interface{} { return &models.University{} },
		preload:     "University",
		deleteTx:    utils.DeleteCollegesTx,
	}

	Department = &node{
		label:  "Department",
		plural: "departments",
		model:  func() interface{} { return &models.Department{} },
		slice:  func() interface{} { return &[]models.Department{} },
		build: func(name string, parentID uint) interface{} {
			return &models.Department{Name: name, CollegeID: parentID}
		},
		parentCol:   "college_id",
		parentKey:   "collegeId",
		parentLabel: "College",
		parent:      func() interface{} { return &models.College{} },
		preload:     "College",
		deleteTx:    utils.DeleteDepartmentsTx,
	}

	Level = &node{
		label:  "Level",
		plural: "levels",
		model:  func() interface{} { return &models.Level{} },
		slice:  func() interface{} { return &[]models.Level{} },
		build: func(name string, parentID uint) interface{} {
			return &models.Level{Name: name, DepartmentID: parentID}
		},
		parentCol:   "department_id",
		parentKey:   "departmentId",
		parentLabel: "Department",
		parent:      func() interface{} { return &models.Department{} },
		preload:     "Department",
		deleteTx:    utils.DeleteLevelsTx,
	}
)

// ParentKey is the body/query key that names the parent id, empty for universities.
func (n *node) ParentKey() string { return n.parentKey }

// Label is the entity name used in messages and route parameters.
func (n *node) Label() string { return n.label }

func (n *node) parentExists(db *gorm.DB, id uint) (bool, error) {
	err := db.First(n.parent(), id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// nameTaken reports whether a sibling (same parent) already uses name, ignoring case.
func (n *node) nameTaken(db *gorm.DB, name string, parentID, excludeID uint) (bool, error) {
	q := db.Model(n.model()).Where("LOWER(name) = ?", strings.ToLower(name))
	if n.parentCol != "" {
		q = q.Where(n.parentCol+" = ?", parentID)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create handles POST /admin/<plural>
func (n *node) Create(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedNode").(*academicValidator.NodeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	if n.parentCol != "" {
		exists, err := n.parentExists(db, reqData.ParentID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check "+strings.ToLower(n.parentLabel)+"!", nil)
		}
		if !exists {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, n.parentLabel+" not found!", nil)
		}
	}

	taken, err := n.nameTaken(db, reqData.Name, reqData.ParentID, 0)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create "+strings.ToLower(n.label)+"!", nil)
	}
	if taken {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, n.label+" with this name already exists!", nil)
	}

	row := n.build(reqData.Name, reqData.ParentID)
	if err := db.Create(row).Error; err != nil {
		logger.Log.Error("Error creating academic node", "entity", n.label, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create "+strings.ToLower(n.label)+"!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, n.label+" created successfully!", row)
}

// List handles GET /admin/<plural> with pagination, search and the parent filter.
func (n *node) List(c *fiber.Ctx) error {
	query := shared.Query(c)

	q := database.Database.Db.Model(n.model())
	if n.parentCol != "" {
		parentID, ok := shared.QueryUint(c, n.parentKey)
		if !ok {
			return middleware.ValidationErrorResponse(c, map[string]string{n.parentKey: n.parentKey + " must be a positive integer"})
		}
		if parentID != 0 {
			q = q.Where(n.parentCol+" = ?", parentID)
		}
	}
	if query.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query.Search)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch "+n.plural+"!", nil)
	}

	rows := n.slice()
	if n.preload != "" {
		q = q.Preload(n.preload)
	}
	if err := q.Order("name asc").Offset(query.Offset()).Limit(query.Limit).Find(rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch "+n.plural+"!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, n.label+" list fetched successfully!", fiber.Map{
		n.plural: rows,
		"pagination": fiber.Map{
			"total": total,
			"page":  query.Page,
			"limit": query.Limit,
		},
	})
}

// Get handles GET /admin/<plural>/:id
func (n *node) Get(c *fiber.Ctx) error {
	id := shared.ID(c, "id")

	q := database.Database.Db
	if n.preload != "" {
		q = q.Preload(n.preload)
	}
	row := n.model()
	if err := q.First(row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, n.label+" not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch "+strings.ToLower(n.label)+"!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, n.label+" fetched successfully!", row)
}

// Update handles PUT /admin/<plural>/:id. A parent id in the body moves the node.
func (n *node) Update(c *fiber.Ctx) error {
	id := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedNode").(*academicValidator.NodeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	row := n.model()
	if err := db.First(row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, n.label+" not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch "+strings.ToLower(n.label)+"!", nil)
	}

	updates := map[string]interface{}{"name": reqData.Name}
	var parentID uint
	if n.parentCol != "" {
		if err := db.Model(n.model()).Where("id = ?", id).Pluck(n.parentCol, &parentID).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update "+strings.ToLower(n.label)+"!", nil)
		}
		if reqData.ParentID != 0 && reqData.ParentID != parentID {
			exists, err := n.parentExists(db, reqData.ParentID)
			if err != nil {
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check "+strings.ToLower(n.parentLabel)+"!", nil)
			}
			if !exists {
				return middleware.JsonResponse(c, fiber.StatusNotFound, false, n.parentLabel+" not found!", nil)
			}
			parentID = reqData.ParentID
			updates[n.parentCol] = parentID
		}
	}

	taken, err := n.nameTaken(db, reqData.Name, parentID, id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update "+strings.ToLower(n.label)+"!", nil)
	}
	if taken {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, n.label+" with this name already exists!", nil)
	}

	if err := db.Model(row).Updates(updates).Error; err != nil {
		logger.Log.Error("Error updating academic node", "entity", n.label, "id", id, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update "+strings.ToLower(n.label)+"!", nil)
	}

	updated := n.model()
	if err := db.First(updated, id).Error; err != nil {
		logger.Log.Error("Error reloading academic node", "entity", n.label, "id", id, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch updated "+strings.ToLower(n.label)+"!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, n.label+" updated successfully!", updated)
}

// Delete handles DELETE /admin/<plural>/:id, removing the whole subtree.
func (n *node) Delete(c *fiber.Ctx) error {
	id := shared.ID(c, "id")
	db := database.Database.Db

	if err := db.First(n.model(), id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, n.label+" not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch "+strings.ToLower(n.label)+"!", nil)
	}

	var keys []string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = n.deleteTx(tx, []uint{id})
		return err
	})
	if err != nil {
		logger.Log.Error("Error deleting academic node", "entity", n.label, "id", id, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete "+strings.ToLower(n.label)+"!", nil)
	}

	utils.DeleteMedia(c.UserContext(), keys...)
	return middleware.JsonResponse(c, fiber.StatusOK, true, n.label+" deleted successfully!", nil)
}
