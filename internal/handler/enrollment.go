package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/certificate"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/payment"
	"github.com/openstudent/platform/internal/repository"
)

// EnrollmentHandler drives the learner lifecycle: enroll, pay, progress,
// complete, certificate.
type EnrollmentHandler struct {
	Enrollments *repository.EnrollmentRepo
	Courses     *repository.CourseRepo
	Tours       *repository.TourRepo
	Users       *repository.UserRepo
	Issuer      *certificate.Issuer
	Trail       *audit.Log
	Gateway     payment.Verifier
}

func NewEnrollmentHandler(
	enrollments *repository.EnrollmentRepo,
	courses *repository.CourseRepo,
	tours *repository.TourRepo,
	users *repository.UserRepo,
	issuer *certificate.Issuer,
	trail *audit.Log,
	gateway payment.Verifier,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		Enrollments: enrollments,
		Courses:     courses,
		Tours:       tours,
		Users:       users,
		Issuer:      issuer,
		Trail:       trail,
		Gateway:     gateway,
	}
}

type enrollmentDTO struct {
	ID               uint64 `json:"id"`
	UserID           uint64 `json:"user_id"`
	CourseID         uint64 `json:"course_id,omitempty"`
	TourID           uint64 `json:"tour_id,omitempty"`
	EnrollmentType   string `json:"enrollment_type"`
	PaymentReference string `json:"payment_reference"`
	PaymentStatus    string `json:"payment_status"`
	AmountPaid       int64  `json:"amount_paid"`
	Currency         string `json:"currency"`
	Progress         int    `json:"progress"`
	Completed        bool   `json:"completed"`
	CompletedAt      string `json:"completed_at,omitempty"`
	CertificateSent  bool   `json:"certificate_sent"`
	CreatedAt        string `json:"created_at"`
}

func toEnrollmentDTO(e model.Enrollment) enrollmentDTO {
	d := enrollmentDTO{
		ID:               e.ID,
		UserID:           e.UserID,
		EnrollmentType:   e.EnrollmentType,
		PaymentReference: e.PaymentReference,
		PaymentStatus:    e.PaymentStatus,
		AmountPaid:       e.AmountPaid,
		Currency:         e.Currency,
		Progress:         e.Progress,
		Completed:        e.Completed,
		CertificateSent:  e.CertificateSent,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
	if e.CourseID.Valid {
		d.CourseID = uint64(e.CourseID.Int64)
	}
	if e.TourID.Valid {
		d.TourID = uint64(e.TourID.Int64)
	}
	if e.CompletedAt.Valid {
		d.CompletedAt = e.CompletedAt.Time.Format(time.RFC3339)
	}
	return d
}

type enrollReq struct {
	CourseID         uint64 `json:"course_id"`
	TourID           uint64 `json:"tour_id"`
	EnrollmentType   string `json:"enrollment_type"`
	PaymentReference string `json:"payment_reference"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

type progressReq struct {
	EnrollmentID uint64 `json:"enrollment_id"`
	Progress     int    `json:"progress"`
}

type completeReq struct {
	EnrollmentID uint64 `json:"enrollment_id"`
}

type verifyPaymentReq struct {
	Reference string `json:"reference"`
}

// List returns the caller's enrollments, newest first.
func (h *EnrollmentHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	enrollments, err := h.Enrollments.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load enrollments"})
	}
	out := make([]enrollmentDTO, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, toEnrollmentDTO(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"enrollments": out})
}

// ListAll returns the newest enrollments across all users for the back
// office. Mounted admin-only.
func (h *EnrollmentHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	enrollments, err := h.Enrollments.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load enrollments"})
	}
	out := make([]enrollmentDTO, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, toEnrollmentDTO(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"enrollments": out, "count": len(out)})
}

// Create opens a pending enrollment for exactly one course or one tour.
// The payment reference defaults to a generated one when the client has not
// initialized the transaction itself.
func (h *EnrollmentHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req enrollReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if (req.CourseID == 0) == (req.TourID == 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exactly one of course_id or tour_id is required"})
	}
	switch req.EnrollmentType {
	case model.EnrollCourse, model.EnrollTour, model.EnrollCombo:
	case "":
		if req.CourseID != 0 {
			req.EnrollmentType = model.EnrollCourse
		} else {
			req.EnrollmentType = model.EnrollTour
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment_type"})
	}
	if req.Currency != model.CurrencyNGN && req.Currency != model.CurrencyUSD {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "currency must be NGN or USD"})
	}
	if req.Amount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must not be negative"})
	}
	if req.PaymentReference == "" {
		req.PaymentReference = "PAY-" + uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// The enrolled program must exist and be purchasable.
	if req.CourseID != 0 {
		course, err := h.Courses.GetByID(ctx, req.CourseID)
		if err != nil || !course.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Course not available"})
		}
	} else {
		tour, err := h.Tours.GetByID(ctx, req.TourID)
		if err != nil || !tour.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tour not available"})
		}
	}

	e := model.Enrollment{
		UserID:           uid,
		EnrollmentType:   req.EnrollmentType,
		PaymentReference: req.PaymentReference,
		PaymentStatus:    model.PaymentPending,
		AmountPaid:       req.Amount,
		Currency:         req.Currency,
	}
	if req.CourseID != 0 {
		e.CourseID = sql.NullInt64{Int64: int64(req.CourseID), Valid: true}
	}
	if req.TourID != 0 {
		e.TourID = sql.NullInt64{Int64: int64(req.TourID), Valid: true}
	}

	id, err := h.Enrollments.Create(ctx, e)
	if err != nil {
		if errors.Is(err, repository.ErrReferenceExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Payment reference already used"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create enrollment"})
	}
	e.ID = id
	e.CreatedAt = time.Now().UTC()

	h.Trail.Record(audit.Entry{ActorID: uid, Action: "ENROLL", Resource: "enrollment",
		ResourceID: strconv.FormatUint(id, 10), Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusCreated, toEnrollmentDTO(e))
}

// UpdateProgress handles PUT /enrollments/:id/progress. The path id wins
// over any body id.
func (h *EnrollmentHandler) UpdateProgress(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}
	var req progressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.EnrollmentID = id
	return h.applyProgress(c, req)
}

// UpdateProgressBody handles POST /update-progress, where the enrollment id
// travels in the body.
func (h *EnrollmentHandler) UpdateProgressBody(c echo.Context) error {
	var req progressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EnrollmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "enrollment_id is required"})
	}
	return h.applyProgress(c, req)
}

func (h *EnrollmentHandler) applyProgress(c echo.Context, req progressReq) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if req.Progress < 0 || req.Progress > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "progress must be between 0 and 100"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	e, err := h.loadOwned(ctx, req.EnrollmentID, uid)
	if err != nil {
		return respondOwnership(c, err)
	}
	if e.Completed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Course already completed"})
	}

	if err := h.Enrollments.UpdateProgress(ctx, e.ID, req.Progress); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update progress"})
	}
	e.Progress = req.Progress

	// Hitting 100 finishes the program and triggers certification in the
	// same request.
	if req.Progress == 100 {
		return h.finish(c, ctx, e, uid)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "progress": req.Progress})
}

// CompleteCourse handles POST /complete-course: force progress to 100 and
// issue the certificate.
func (h *EnrollmentHandler) CompleteCourse(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req completeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EnrollmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "enrollment_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	e, err := h.loadOwned(ctx, req.EnrollmentID, uid)
	if err != nil {
		return respondOwnership(c, err)
	}
	if e.Completed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Course already completed"})
	}

	if err := h.Enrollments.UpdateProgress(ctx, e.ID, 100); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to complete course"})
	}
	e.Progress = 100
	return h.finish(c, ctx, e, uid)
}

// finish wins the completion transition and issues the certificate. The
// guarded update means two racing requests resolve to one winner; the loser
// sees the already-completed answer.
func (h *EnrollmentHandler) finish(c echo.Context, ctx context.Context, e model.Enrollment, uid uint64) error {
	completedAt, err := h.Enrollments.Complete(ctx, e.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Course already completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to complete course"})
	}
	e.Completed = true
	e.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue certificate"})
	}

	result, err := h.Issuer.Issue(ctx, e, user, h.programTitle(ctx, e), completedAt)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyIssued) {
			// Completion won but a certificate already exists; surface it.
			existing, gerr := h.Issuer.Certificates.GetByEnrollment(ctx, e.ID)
			if gerr == nil {
				return c.JSON(http.StatusOK, echo.Map{"success": true, "completed": true,
					"certificate_number": existing.CertificateNumber})
			}
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue certificate"})
	}

	h.Trail.Record(audit.Entry{ActorID: uid, Action: "COMPLETE_COURSE", Resource: "enrollment",
		ResourceID: strconv.FormatUint(e.ID, 10), Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, echo.Map{
		"success":            true,
		"completed":          true,
		"completed_at":       completedAt.Format(time.RFC3339),
		"certificate_number": result.Certificate.CertificateNumber,
		"certificate_url":    result.Certificate.CertificateURL,
		"email_sent":         result.EmailSent,
	})
}

// VerifyPayment confirms a pending enrollment's payment with the gateway
// and records the settled amount. The route carries no session; the
// reference itself is the authorization, matching the gateway redirect flow.
func (h *EnrollmentHandler) VerifyPayment(c echo.Context) error {
	uid, _ := getUserID(c) // zero for anonymous callers
	var req verifyPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference is required"})
	}

	v, err := h.Gateway.Verify(c.Request().Context(), req.Reference)
	if err != nil {
		h.Trail.Record(audit.Entry{ActorID: uid, Action: "VERIFY_PAYMENT", Resource: "payment",
			ResourceID: req.Reference, Outcome: audit.Failure, Detail: "gateway rejected",
			SourceAddr: clientIP(c)})
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Payment verification failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Enrollments.ConfirmPayment(ctx, v.Reference, v.Amount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Enrollment not found for reference"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to confirm payment"})
	}

	h.Trail.Record(audit.Entry{ActorID: uid, Action: "VERIFY_PAYMENT", Resource: "payment",
		ResourceID: v.Reference, Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.PaymentCompleted,
		"amount": v.Amount, "currency": v.Currency})
}

// loadOwned fetches an enrollment and checks the caller owns it.
func (h *EnrollmentHandler) loadOwned(ctx context.Context, id, uid uint64) (model.Enrollment, error) {
	e, err := h.Enrollments.GetByID(ctx, id)
	if err != nil {
		return model.Enrollment{}, err
	}
	if e.UserID != uid {
		return model.Enrollment{}, repository.ErrForbidden
	}
	return e, nil
}

func respondOwnership(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Enrollment not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not own this enrollment"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load enrollment"})
	}
}

// programTitle resolves the display title of whatever program the
// enrollment points at. Falls back to a generic label when the catalog row
// is gone.
func (h *EnrollmentHandler) programTitle(ctx context.Context, e model.Enrollment) string {
	if e.CourseID.Valid {
		if course, err := h.Courses.GetByID(ctx, uint64(e.CourseID.Int64)); err == nil {
			return course.Title
		}
	}
	if e.TourID.Valid {
		if tour, err := h.Tours.GetByID(ctx, uint64(e.TourID.Int64)); err == nil {
			return tour.Title
		}
	}
	return "Program"
}
