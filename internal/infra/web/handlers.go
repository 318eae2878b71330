package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/infra/logging"
	"visitgate/internal/usecase"
)

type companyResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

type roomResponse struct {
	ID       int64  `json:"id"`
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
}

type bookingResponse struct {
	ID        int64  `json:"id"`
	Ref       string `json:"ref"`
	RoomID    int64  `json:"room_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Requester string `json:"requester"`
	Status    string `json:"status"`
}

type visitorResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	PhotoURL     string     `json:"photo_url,omitempty"`
	Status       string     `json:"status"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

func toRoomResponse(r *model.Room) roomResponse {
	return roomResponse{ID: r.ID, Number: r.Number, Name: r.Name, Capacity: r.Capacity, IsActive: r.IsActive}
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID: b.ID, Ref: b.Ref, RoomID: b.RoomID,
		Date: b.Date, Start: b.Start, End: b.End,
		Requester: b.RequesterName, Status: string(b.Status),
	}
}

func toVisitorResponse(v *model.Visitor) visitorResponse {
	return visitorResponse{
		ID: v.ID, Name: v.Name, Code: v.Code, PhotoURL: v.PhotoURL,
		Status: string(v.Status), CheckedInAt: v.CheckedInAt, CheckedOutAt: v.CheckedOutAt,
	}
}

// --- tenant lifecycle ---

func (s *Server) handleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	ctx := r.Context()

	c, err := s.companyUC.Register(ctx, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	slug, err := s.companyUC.EnsureSlug(ctx, c.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := IssueToken(s.jwtSecret, c.ID, "owner", "admin", s.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Company companyResponse `json:"company"`
		Token   string          `json:"token"`
	}{
		Company: companyResponse{ID: c.ID, Name: c.Name, Slug: slug, Plan: string(c.Plan), Status: string(c.Status)},
		Token:   token,
	})
}

func (s *Server) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	id, _ := Identity(r.Context())
	ent, err := s.subUC.Resolve(r.Context(), id.CompanyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Plan         string `json:"plan"`
		Status       string `json:"status"`
		RoomLimit    int    `json:"room_limit"`
		BookingLimit int    `json:"booking_limit"`
		VisitorLimit int    `json:"visitor_limit"`
	}{
		Plan: string(ent.Plan), Status: string(ent.Status),
		RoomLimit: ent.RoomLimit, BookingLimit: ent.BookingLimit, VisitorLimit: ent.VisitorLimit,
	})
}

// --- rooms ---

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	id, _ := Identity(r.Context())
	rooms, err := s.roomUC.List(r.Context(), id.CompanyID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomResponse(room))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []roomResponse `json:"data"`
	}{Data: out})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number   int    `json:"number"`
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, _ := Identity(r.Context())
	room, err := s.roomUC.Create(r.Context(), id.CompanyID, req.Number, req.Name, req.Capacity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomResponse(room))
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, _ := Identity(r.Context())
	room, err := s.roomUC.Update(r.Context(), id.CompanyID, roomID, req.Name, req.Capacity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	id, _ := Identity(r.Context())
	if err := s.roomUC.Delete(r.Context(), id.CompanyID, roomID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncRooms(w http.ResponseWriter, r *http.Request) {
	id, _ := Identity(r.Context())
	if err := s.roomUC.SyncActivation(r.Context(), id.CompanyID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// --- bookings ---

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	id, _ := Identity(r.Context())
	date := r.URL.Query().Get("date")
	roomID, _ := strconv.ParseInt(r.URL.Query().Get("room_id"), 10, 64)
	bookings, err := s.bookingUC.ListForDay(r.Context(), id.CompanyID, roomID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []bookingResponse `json:"data"`
	}{Data: out})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID  int64  `json:"room_id"`
		Date    string `json:"date"`
		Start   string `json:"start"` // "H:MM AM/PM"
		End     string `json:"end"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, _ := Identity(r.Context())
	b, err := s.bookingUC.Create(r.Context(), id.CompanyID, req.RoomID, req.Date, req.Start, req.End, usecase.BookingRequest{
		Name:    req.Name,
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (s *Server) handleRescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Date  string `json:"date"`
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, _ := Identity(r.Context())
	b, err := s.bookingUC.Reschedule(r.Context(), id.CompanyID, bookingID, req.Date, req.Start, req.End)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	id, _ := Identity(r.Context())
	if err := s.bookingUC.Cancel(r.Context(), id.CompanyID, bookingID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- visitors ---

func (s *Server) handleListVisitors(w http.ResponseWriter, r *http.Request) {
	id, _ := Identity(r.Context())
	day := r.URL.Query().Get("day")
	visitors, err := s.visitorUC.ListForDay(r.Context(), id.CompanyID, day)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]visitorResponse, 0, len(visitors))
	for _, v := range visitors {
		out = append(out, toVisitorResponse(v))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []visitorResponse `json:"data"`
	}{Data: out})
}

type checkInRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	PhotoBase64 string `json:"photo_base64"`
	PhotoMime   string `json:"photo_mime"`
}

func (req *checkInRequest) toInput() (usecase.CheckInInput, error) {
	in := usecase.CheckInInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		PhotoMime: req.PhotoMime,
	}
	if req.PhotoBase64 != "" {
		photo, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
		if err != nil {
			return in, domain.ErrInvalidArgument
		}
		in.Photo = photo
	}
	return in, nil
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}
	id, _ := Identity(r.Context())
	v, err := s.visitorUC.CheckIn(r.Context(), id.CompanyID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVisitorResponse(v))
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	id, _ := Identity(r.Context())
	if err := s.visitorUC.CheckOut(r.Context(), id.CompanyID, code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "checked_out"})
}

// --- public self-registration ---

func (s *Server) resolveSlug(w http.ResponseWriter, r *http.Request) (*model.Company, bool) {
	slug := chi.URLParam(r, "slug")
	c, err := s.companyUC.GetBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return c, true
}

func (s *Server) handleOtpSend(w http.ResponseWriter, r *http.Request) {
	c, ok := s.resolveSlug(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	ctx := logging.WithCompanyID(r.Context(), c.ID)
	if err := s.otpUC.Send(ctx, c.ID, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleOtpVerify(w http.ResponseWriter, r *http.Request) {
	c, ok := s.resolveSlug(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	ctx := logging.WithCompanyID(r.Context(), c.ID)
	token, err := s.otpUC.Verify(ctx, c.ID, req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_token": token})
}

// handlePublicRegister finishes the OTP flow: a verified session token (sent
// as a bearer credential) authorizes exactly one visitor registration.
func (s *Server) handlePublicRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.resolveSlug(w, r); !ok {
		return
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session token"})
		return
	}
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.otpUC.RegisterVisitor(r.Context(), parts[1], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVisitorResponse(v))
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	return id, nil
}
