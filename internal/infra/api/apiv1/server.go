// Package apiv1 exposes the coupon lifecycle engine over HTTP.
package apiv1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/infra/metrics"
	"coupon-lifecycle-engine/internal/usecase"
)

// Server holds the use cases behind the v1 routes.
type Server struct {
	books   *usecase.BookUseCase
	assigns *usecase.AssignmentUseCase
	locks   *usecase.LockUseCase
	redeems *usecase.RedemptionUseCase
	log     *zerolog.Logger
}

func NewServer(
	books *usecase.BookUseCase,
	assigns *usecase.AssignmentUseCase,
	locks *usecase.LockUseCase,
	redeems *usecase.RedemptionUseCase,
	logger *zerolog.Logger,
) *Server {
	apiLog := logger.With().Str("component", "apiv1").Logger()
	return &Server{books: books, assigns: assigns, locks: locks, redeems: redeems, log: &apiLog}
}

// RegisterAPIV1 attaches every v1 route to the router.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/books", s.handleCreateBook)
		r.Get("/books/{id}", s.handleGetBook)
		r.Patch("/books/{id}/status", s.handleSetBookStatus)
		r.Post("/books/{id}/codes", s.handleUploadCodes)
		r.Post("/books/{id}/codes/generate", s.handleGenerateCodes)
		r.Post("/books/{id}/assign", s.handleAssign)
		r.Post("/coupons/{code}/assign", s.handleAssignSpecific)
		r.Post("/coupons/{code}/lock", s.handleLock)
		r.Post("/coupons/{code}/unlock", s.handleUnlock)
		r.Post("/coupons/{code}/redeem", s.handleRedeem)
		r.Get("/users/{id}/assignments", s.handleUserAssignments)
		r.Post("/maintenance/reclaim-locks", s.handleReclaimLocks)
	})
}

// ---------------- request/response DTOs ----------------

type GenerateSpec struct {
	Pattern      string `json:"pattern"`
	Count        int    `json:"count"`
	RandomLength int    `json:"random_length,omitempty"`
}

type CreateBookRequest struct {
	Name                     string        `json:"name"`
	Description              string        `json:"description,omitempty"`
	BusinessID               string        `json:"business_id"`
	MaxCodesPerUser          *int          `json:"max_codes_per_user,omitempty"`
	AllowMultipleRedemptions bool          `json:"allow_multiple_redemptions,omitempty"`
	ExpiresAt                *time.Time    `json:"expires_at,omitempty"`
	InitialCodes             []string      `json:"initial_codes,omitempty"`
	Generate                 *GenerateSpec `json:"generate,omitempty"`
}

type Book struct {
	ID                       string     `json:"id"`
	Name                     string     `json:"name"`
	Description              string     `json:"description,omitempty"`
	BusinessID               string     `json:"business_id"`
	MaxCodesPerUser          *int       `json:"max_codes_per_user,omitempty"`
	AllowMultipleRedemptions bool       `json:"allow_multiple_redemptions"`
	Status                   string     `json:"status"`
	ExpiresAt                *time.Time `json:"expires_at,omitempty"`
	TotalCodes               int        `json:"total_codes"`
	CreatedAt                time.Time  `json:"created_at"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type UploadCodesRequest struct {
	Codes []string `json:"codes"`
}

type CodesResponse struct {
	Count int      `json:"count"`
	Codes []string `json:"codes"`
}

type AssignRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type Assignment struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	UserID     string    `json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type Coupon struct {
	Code          string     `json:"code"`
	BookID        string     `json:"book_id"`
	Status        string     `json:"status"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	LockOwner     *string    `json:"lock_owner,omitempty"`
	LockExpiresAt *time.Time `json:"lock_expires_at,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
}

type RedeemRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Redemption struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	UserID     string            `json:"user_id"`
	RedeemedAt time.Time         `json:"redeemed_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type ReclaimResponse struct {
	Reclaimed int `json:"reclaimed"`
}

type apiError struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

// ---------------- handlers ----------------

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	params := usecase.CreateBookParams{
		Name:                     req.Name,
		Description:              req.Description,
		MaxCodesPerUser:          req.MaxCodesPerUser,
		AllowMultipleRedemptions: req.AllowMultipleRedemptions,
		ExpiresAt:                req.ExpiresAt,
		InitialCodes:             req.InitialCodes,
	}
	if req.Generate != nil {
		params.Generate = &usecase.GenerateSpec{
			Pattern:      req.Generate.Pattern,
			Count:        req.Generate.Count,
			RandomLength: req.Generate.RandomLength,
		}
	}
	book, err := s.books.Create(r.Context(), req.BusinessID, params)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBook(book))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBook(book))
}

func (s *Server) handleSetBookStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	book, err := s.books.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBook(book))
}

func (s *Server) handleUploadCodes(w http.ResponseWriter, r *http.Request) {
	var req UploadCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if len(req.Codes) == 0 {
		badRequest(w, "codes must not be empty")
		return
	}
	inserted, err := s.books.UploadCodes(r.Context(), chi.URLParam(r, "id"), req.Codes)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCodes(inserted))
}

func (s *Server) handleGenerateCodes(w http.ResponseWriter, r *http.Request) {
	var req GenerateSpec
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	inserted, err := s.books.GenerateCodes(r.Context(), chi.URLParam(r, "id"), req.Pattern, req.Count, req.RandomLength)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	metrics.AddCodesGenerated(len(inserted))
	writeJSON(w, http.StatusCreated, toCodes(inserted))
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	a, err := s.assigns.Assign(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		metrics.IncAssignment(assignOutcome(err))
		s.writeErr(w, r, err)
		return
	}
	metrics.IncAssignment("assigned")
	writeJSON(w, http.StatusCreated, toAssignment(a))
}

func (s *Server) handleAssignSpecific(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	a, err := s.assigns.AssignSpecific(r.Context(), chi.URLParam(r, "code"), userID)
	if err != nil {
		metrics.IncAssignment(assignOutcome(err))
		s.writeErr(w, r, err)
		return
	}
	metrics.IncAssignment("assigned")
	writeJSON(w, http.StatusCreated, toAssignment(a))
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	c, err := s.locks.Lock(r.Context(), chi.URLParam(r, "code"), userID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	metrics.IncLockGranted()
	writeJSON(w, http.StatusOK, toCoupon(c))
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	c, err := s.locks.Unlock(r.Context(), chi.URLParam(r, "code"), userID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	metrics.IncLockReleased()
	writeJSON(w, http.StatusOK, toCoupon(c))
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req RedeemRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid json body")
			return
		}
	}
	rd, err := s.redeems.Redeem(r.Context(), chi.URLParam(r, "code"), userID, req.Metadata)
	if err != nil {
		metrics.IncRedemption(redeemOutcome(err))
		s.writeErr(w, r, err)
		return
	}
	metrics.IncRedemption("redeemed")
	writeJSON(w, http.StatusOK, toRedemption(rd))
}

func (s *Server) handleUserAssignments(w http.ResponseWriter, r *http.Request) {
	items, err := s.assigns.UserAssignments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := struct {
		Items []Assignment `json:"items"`
	}{Items: make([]Assignment, 0, len(items))}
	for _, a := range items {
		out.Items = append(out.Items, toAssignment(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReclaimLocks(w http.ResponseWriter, r *http.Request) {
	n, err := s.locks.ReclaimExpired(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	metrics.AddLocksReclaimed(n)
	writeJSON(w, http.StatusOK, ReclaimResponse{Reclaimed: n})
}

// ---------------- helpers ----------------

// resolveUser picks the target user for assignment: explicit user_id in the
// body wins (a business assigning on someone's behalf), otherwise the caller.
func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req AssignRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid json body")
			return "", false
		}
	}
	if req.UserID != "" {
		return req.UserID, true
	}
	return callerID(w, r)
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := r.Header.Get("X-User-ID")
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "unauthorized", Message: "X-User-ID header required"})
		return "", false
	}
	return uid, true
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)
	if status >= 500 {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	body := apiError{Error: kind.String()}
	if de, ok := err.(*domain.Error); ok {
		body.Message = de.Msg
		body.Code = de.Code
		body.Requested = de.Requested
		body.Available = de.Available
	}
	if status >= 500 {
		// Do not leak internals.
		body.Message = ""
	}
	writeJSON(w, status, body)
}

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindConflict, domain.KindAlreadyRedeemed:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.KindExhausted, domain.KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func assignOutcome(err error) string {
	switch domain.KindOf(err) {
	case domain.KindExhausted:
		return "exhausted"
	case domain.KindQuotaExceeded:
		return "quota"
	default:
		return "rejected"
	}
}

func redeemOutcome(err error) string {
	switch domain.KindOf(err) {
	case domain.KindForbidden:
		return "forbidden"
	case domain.KindExpired:
		return "expired"
	default:
		return "rejected"
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: "bad_request", Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toBook(b *model.CouponBook) Book {
	return Book{
		ID:                       b.ID,
		Name:                     b.Name,
		Description:              b.Description,
		BusinessID:               b.BusinessID,
		MaxCodesPerUser:          b.MaxCodesPerUser,
		AllowMultipleRedemptions: b.AllowMultipleRedemptions,
		Status:                   b.Status,
		ExpiresAt:                b.ExpiresAt,
		TotalCodes:               b.TotalCodes,
		CreatedAt:                b.CreatedAt,
	}
}

func toCodes(codes []*model.CouponCode) CodesResponse {
	out := CodesResponse{Count: len(codes), Codes: make([]string, 0, len(codes))}
	for _, c := range codes {
		out.Codes = append(out.Codes, c.Code)
	}
	return out
}

func toAssignment(a *model.Assignment) Assignment {
	return Assignment{ID: a.ID, Code: a.Code, UserID: a.UserID, AssignedAt: a.AssignedAt}
}

func toCoupon(c *model.CouponCode) Coupon {
	return Coupon{
		Code:          c.Code,
		BookID:        c.BookID,
		Status:        c.Status,
		AssignedTo:    c.AssignedToUserID,
		LockOwner:     c.LockOwnerUserID,
		LockExpiresAt: c.LockExpiresAt,
		RedeemedAt:    c.RedeemedAt,
	}
}

func toRedemption(rd *model.Redemption) Redemption {
	return Redemption{ID: rd.ID, Code: rd.Code, UserID: rd.UserID, RedeemedAt: rd.RedeemedAt, Metadata: rd.Metadata}
}
