package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/repository"
)

// TourHandler serves the tour catalog and the admin mutations.
type TourHandler struct {
	Tours *repository.TourRepo
	Trail *audit.Log
}

func NewTourHandler(tours *repository.TourRepo, trail *audit.Log) *TourHandler {
	return &TourHandler{Tours: tours, Trail: trail}
}

type tourDTO struct {
	ID                  uint64 `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Location            string `json:"location,omitempty"`
	State               string `json:"state,omitempty"`
	Date                string `json:"date,omitempty"`
	PriceNGN            int64  `json:"price_ngn"`
	PriceUSD            int64  `json:"price_usd"`
	MaxParticipants     int    `json:"max_participants"`
	CurrentParticipants int    `json:"current_participants"`
	IsActive            bool   `json:"is_active"`
}

func toTourDTO(t model.Tour) tourDTO {
	d := tourDTO{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description.String,
		Location:            t.Location.String,
		State:               t.State.String,
		PriceNGN:            t.PriceNGN,
		PriceUSD:            t.PriceUSD,
		MaxParticipants:     t.MaxParticipants,
		CurrentParticipants: t.CurrentParticipants,
		IsActive:            t.IsActive,
	}
	if t.Date.Valid {
		d.Date = t.Date.Time.Format(time.RFC3339)
	}
	return d
}

type tourReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	State           string `json:"state"`
	Date            string `json:"date"`
	PriceNGN        int64  `json:"price_ngn"`
	PriceUSD        int64  `json:"price_usd"`
	MaxParticipants int    `json:"max_participants"`
	IsActive        *bool  `json:"is_active"`
}

func (r tourReq) toModel(id uint64) (model.Tour, error) {
	if r.Title == "" {
		return model.Tour{}, errors.New("title is required")
	}
	if r.PriceNGN < 0 || r.PriceUSD < 0 {
		return model.Tour{}, errors.New("prices must not be negative")
	}
	if r.MaxParticipants <= 0 {
		return model.Tour{}, errors.New("max_participants must be positive")
	}
	t := model.Tour{
		ID:              id,
		Title:           r.Title,
		Description:     sql.NullString{String: r.Description, Valid: r.Description != ""},
		Location:        sql.NullString{String: r.Location, Valid: r.Location != ""},
		State:           sql.NullString{String: r.State, Valid: r.State != ""},
		PriceNGN:        r.PriceNGN,
		PriceUSD:        r.PriceUSD,
		MaxParticipants: r.MaxParticipants,
		IsActive:        true,
	}
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
	if r.Date != "" {
		when, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			return model.Tour{}, errors.New("date must be RFC 3339")
		}
		t.Date = sql.NullTime{Time: when.UTC(), Valid: true}
	}
	return t, nil
}

// List returns every active tour.
func (h *TourHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tours, err := h.Tours.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load tours"})
	}
	out := make([]tourDTO, 0, len(tours))
	for _, t := range tours {
		out = append(out, toTourDTO(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"tours": out})
}

// Get returns one tour by id.
func (h *TourHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tour, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load tour"})
	}
	return c.JSON(http.StatusOK, toTourDTO(tour))
}

// Create adds a new tour. Admin only.
func (h *TourHandler) Create(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	tour, err := req.toModel(0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Tours.Create(ctx, tour)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create tour"})
	}
	tour.ID = id

	h.Trail.Record(audit.Entry{Action: "TOUR_CREATE", Resource: "tour",
		ResourceID: strconv.FormatUint(id, 10), Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusCreated, toTourDTO(tour))
}

// Update replaces a tour's fields. Admin only.
func (h *TourHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	tour, err := req.toModel(id)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tours.Update(ctx, tour); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update tour"})
	}

	h.Trail.Record(audit.Entry{Action: "TOUR_UPDATE", Resource: "tour",
		ResourceID: strconv.FormatUint(id, 10), Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, toTourDTO(tour))
}
