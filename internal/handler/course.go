package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/repository"
)

// CourseHandler serves the public course catalog and the admin mutations.
type CourseHandler struct {
	Courses *repository.CourseRepo
	Trail   *audit.Log
}

func NewCourseHandler(courses *repository.CourseRepo, trail *audit.Log) *CourseHandler {
	return &CourseHandler{Courses: courses, Trail: trail}
}

type courseDTO struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	PriceNGN      int64  `json:"price_ngn"`
	PriceUSD      int64  `json:"price_usd"`
	DurationWeeks int    `json:"duration_weeks"`
	ClassroomLink string `json:"classroom_link,omitempty"`
	IsActive      bool   `json:"is_active"`
}

func toCourseDTO(c model.Course) courseDTO {
	return courseDTO{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		PriceNGN:      c.PriceNGN,
		PriceUSD:      c.PriceUSD,
		DurationWeeks: c.DurationWeeks,
		ClassroomLink: c.ClassroomLink.String,
		IsActive:      c.IsActive,
	}
}

type courseReq struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	PriceNGN      int64  `json:"price_ngn"`
	PriceUSD      int64  `json:"price_usd"`
	DurationWeeks int    `json:"duration_weeks"`
	ClassroomLink string `json:"classroom_link"`
	IsActive      *bool  `json:"is_active"`
}

var courseCategories = map[string]bool{
	"writing": true, "graphics": true, "video": true,
	"speaking": true, "leadership": true, "storytelling": true,
}

func (r courseReq) validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if !courseCategories[r.Category] {
		return errors.New("invalid category")
	}
	if r.PriceNGN < 0 || r.PriceUSD < 0 {
		return errors.New("prices must not be negative")
	}
	if r.DurationWeeks <= 0 {
		return errors.New("duration_weeks must be positive")
	}
	return nil
}

// List returns every active course.
func (h *CourseHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	courses, err := h.Courses.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load courses"})
	}
	out := make([]courseDTO, 0, len(courses))
	for _, cr := range courses {
		out = append(out, toCourseDTO(cr))
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out})
}

// Get returns one course by id.
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load course"})
	}
	return c.JSON(http.StatusOK, toCourseDTO(course))
}

// Create adds a new course. Admin only.
func (h *CourseHandler) Create(c echo.Context) error {
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	course := model.Course{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PriceNGN:      req.PriceNGN,
		PriceUSD:      req.PriceUSD,
		DurationWeeks: req.DurationWeeks,
		ClassroomLink: sql.NullString{String: req.ClassroomLink, Valid: req.ClassroomLink != ""},
		IsActive:      active,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Courses.Create(ctx, course)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create course"})
	}
	course.ID = id

	h.Trail.Record(audit.Entry{Action: "COURSE_CREATE", Resource: "course",
		ResourceID: strconv.FormatUint(id, 10), Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusCreated, toCourseDTO(course))
}

// Update replaces a course's fields. Admin only.
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	course := model.Course{
		ID:            id,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PriceNGN:      req.PriceNGN,
		PriceUSD:      req.PriceUSD,
		DurationWeeks: req.DurationWeeks,
		ClassroomLink: sql.NullString{String: req.ClassroomLink, Valid: req.ClassroomLink != ""},
		IsActive:      active,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Courses.Update(ctx, course); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update course"})
	}

	h.Trail.Record(audit.Entry{Action: "COURSE_UPDATE", Resource: "course",
		ResourceID: strconv.FormatUint(id, 10), Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, toCourseDTO(course))
}
