package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"visitgate/internal/domain"
)

type BookingStatus string

const (
	BookingStatusBooked      BookingStatus = "BOOKED"
	BookingStatusCancelled   BookingStatus = "CANCELLED"
	BookingStatusRescheduled BookingStatus = "RESCHEDULED"
)

// Booking is a reserved time window on a room. Start and End are zero-padded
// 24-hour "HH:MM" strings; same-day windows compare correctly as strings.
type Booking struct {
	ID             int64
	Ref            string // public reference embedded in notifications
	CompanyID      int64
	RoomID         int64
	Date           string // YYYY-MM-DD
	Start          string // HH:MM, inclusive
	End            string // HH:MM, exclusive
	RequesterName  string
	RequesterEmail string
	Purpose        string
	Status         BookingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Overlaps is the interval predicate used everywhere a conflict is decided:
// [aStart,aEnd) intersects [bStart,bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

const DateLayout = "2006-01-02"

var meridiemRe = regexp.MustCompile(`^(1[0-2]|[1-9]):([0-5][0-9]) (AM|PM)$`)

// ParseMeridiemTime converts a strict "H:MM AM/PM" clock value (hour 1-12,
// minute 00-59) into the zero-padded 24-hour form used for storage and
// comparison.
func ParseMeridiemTime(s string) (string, error) {
	m := meridiemRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", fmt.Errorf("%w: time %q must be H:MM AM/PM", domain.ErrInvalidArgument, s)
	}
	hour := int(m[1][0] - '0')
	if len(m[1]) == 2 {
		hour = 10 + int(m[1][1]-'0')
	}
	if m[3] == "PM" && hour != 12 {
		hour += 12
	}
	if m[3] == "AM" && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%s", hour, m[2]), nil
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidArgument, s)
	}
	return t.Format(DateLayout), nil
}

// ValidateWindow checks a parsed same-day window for emptiness.
func ValidateWindow(start, end string) error {
	if end <= start {
		return fmt.Errorf("%w: end %s must be after start %s", domain.ErrInvalidArgument, end, start)
	}
	return nil
}
