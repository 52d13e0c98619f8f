package models

// Status is the lifecycle state of a reservation. The store keeps it as the
// legacy Y/N canceled flag, so the two have to stay convertible.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

// Flag returns the persisted representation of the status.
func (s Status) Flag() string {
	if s == StatusCanceled {
		return "Y"
	}
	return "N"
}

// StatusFromFlag maps the stored canceled flag back to a Status.
func StatusFromFlag(flag string) Status {
	if flag == "Y" {
		return StatusCanceled
	}
	return StatusActive
}

type Reservation struct {
	ID         int64  `json:"id"`
	Desk       int    `json:"desk"`
	Date       string `json:"date"`       // YYYY-MM-DD
	StartTime  string `json:"start_time"` // HH:MM, inclusive
	EndTime    string `json:"end_time"`   // HH:MM, exclusive
	ReservedBy string `json:"reserved_by"`
	StudentID  string `json:"student_id"`
	Status     Status `json:"status"`
}

// Slot is a requested (desk, date, interval) tuple before it becomes a reservation.
type Slot struct {
	Desk      int    `json:"desk"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
