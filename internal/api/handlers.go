package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"deskbook/internal/models"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		StudentID string `json:"student_id"`
		Password  string `json:"password"`
		Name      string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.identity.Register(r.Context(), body.StudentID, body.Password, body.Name); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"student_id": body.StudentID})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		StudentID string `json:"student_id"`
		Password  string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := s.identity.Login(r.Context(), body.StudentID, body.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      session.Token,
		"student_id": session.StudentID,
		"user_name":  session.UserName,
		"role":       session.Role,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	session := s.requireSession(w, r)
	if session == nil {
		return
	}

	if err := s.identity.Logout(r.Context(), session.Token); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDesks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": s.plan.Rows})
}

// handleDesk serves /api/v1/desks/{desk}/availability and /api/v1/desks/{desk}/status.
func (s *HTTPServer) handleDesk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/desks/"
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	desk, err := strconv.Atoi(parts[0])
	if err != nil || !s.plan.Contains(desk) {
		writeError(w, http.StatusBadRequest, "unknown desk")
		return
	}

	switch parts[1] {
	case "availability":
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			writeError(w, http.StatusBadRequest, "date is required")
			return
		}
		hours, err := s.reservations.OccupiedHours(r.Context(), desk, date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if hours == nil {
			hours = []int{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"desk": desk, "date": date, "occupied_hours": hours})
	case "status":
		occupied, err := s.reservations.OccupiedNow(r.Context(), desk)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"desk": desk, "occupied": occupied})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		session := s.requireSession(w, r)
		if session == nil {
			return
		}
		reservations, err := s.reservations.ListByUser(r.Context(), session.StudentID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reservations": emptyIfNil(reservations)})
	case http.MethodPost:
		s.handleBook(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	session := s.requireSession(w, r)
	if session == nil {
		return
	}

	var body struct {
		Desk      int    `json:"desk"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	slot := models.Slot{Desk: body.Desk, Date: body.Date, StartTime: body.StartTime, EndTime: body.EndTime}
	user := &models.User{StudentID: session.StudentID, Name: session.UserName}

	reservation, err := s.reservations.Book(r.Context(), slot, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"reservation_id": reservation.ID})
}

// handleReservationByID serves DELETE /api/v1/reservations/{id}.
func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	session := s.requireSession(w, r)
	if session == nil {
		return
	}

	const prefix = "/api/v1/reservations/"
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := s.reservations.Cancel(r.Context(), id, session.StudentID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	session := s.requireSession(w, r)
	if session == nil {
		return
	}

	var body models.Selection
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.identity.SetSelection(r.Context(), session.Token, body); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleAdminReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	reservations, err := s.reservations.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": emptyIfNil(reservations)})
}

func (s *HTTPServer) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	users, err := s.identity.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// handleAdminExport dumps a table to a file and returns its path.
// Query params: table=reservations|users, format=csv|xlsx, file=<name> (csv only).
func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	table := r.URL.Query().Get("table")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	fileName := strings.TrimSpace(r.URL.Query().Get("file"))
	if fileName == "" {
		fileName = fmt.Sprintf("all_%s.csv", table)
	}
	if strings.Contains(fileName, "/") || strings.Contains(fileName, "..") {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	var filePath string
	var err error
	switch {
	case table == "reservations" && format == "csv":
		var reservations []*models.Reservation
		if reservations, err = s.reservations.ListAll(r.Context()); err == nil {
			filePath, err = s.exporter.ReservationsCSV(reservations, fileName)
		}
	case table == "reservations" && format == "xlsx":
		var reservations []*models.Reservation
		if reservations, err = s.reservations.ListAll(r.Context()); err == nil {
			filePath, err = s.exporter.ReservationsXLSX(reservations)
		}
	case table == "users" && format == "csv":
		var users []*models.User
		if users, err = s.identity.ListUsers(r.Context()); err == nil {
			filePath, err = s.exporter.UsersCSV(users, fileName)
		}
	case table == "users" && format == "xlsx":
		var users []*models.User
		if users, err = s.identity.ListUsers(r.Context()); err == nil {
			filePath, err = s.exporter.UsersXLSX(users)
		}
	default:
		writeError(w, http.StatusBadRequest, "table must be reservations or users, format csv or xlsx")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file_path": filePath})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func emptyIfNil(reservations []*models.Reservation) []*models.Reservation {
	if reservations == nil {
		return []*models.Reservation{}
	}
	return reservations
}
