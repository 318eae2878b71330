package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"visitgate/internal/domain"
)

type VisitorStatus string

const (
	VisitorStatusIn  VisitorStatus = "IN"
	VisitorStatusOut VisitorStatus = "OUT"
)

// Visitor is one visit record. Code is assigned after insert from the
// per-tenant daily ordinal; external passes embed and round-trip it verbatim.
type Visitor struct {
	ID           int64
	CompanyID    int64
	Name         string
	Phone        string
	Email        string
	Code         string
	PhotoURL     string
	Status       VisitorStatus
	CheckedInAt  time.Time
	CheckedOutAt *time.Time
	PassMailSent bool
}

// NewVisitor validates required contact fields and constructs a checked-in
// visitor without a code.
func NewVisitor(companyID int64, name, phone, email string, checkedInAt time.Time) (*Visitor, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if companyID <= 0 || name == "" || phone == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Visitor{
		CompanyID:   companyID,
		Name:        name,
		Phone:       phone,
		Email:       strings.TrimSpace(email),
		Status:      VisitorStatusIn,
		CheckedInAt: checkedInAt,
	}, nil
}

// FormatVisitorCode renders the public code CMP<tenantId>-<YYYYMMDD>-<NNNNN>.
// Ordinal is the 1-based position among the tenant's visitors that day.
func FormatVisitorCode(companyID int64, day time.Time, ordinal int) string {
	return fmt.Sprintf("CMP%d-%s-%05d", companyID, day.Format("20060102"), ordinal)
}

// ParseVisitorCode splits a code back into its parts, validating the shape.
func ParseVisitorCode(code string) (companyID int64, day string, ordinal int, err error) {
	parts := strings.Split(code, "-")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "CMP") {
		return 0, "", 0, domain.ErrInvalidArgument
	}
	companyID, err = strconv.ParseInt(strings.TrimPrefix(parts[0], "CMP"), 10, 64)
	if err != nil || companyID <= 0 {
		return 0, "", 0, domain.ErrInvalidArgument
	}
	if _, perr := time.Parse("20060102", parts[1]); perr != nil || len(parts[1]) != 8 {
		return 0, "", 0, domain.ErrInvalidArgument
	}
	ordinal, err = strconv.Atoi(parts[2])
	if err != nil || ordinal <= 0 || len(parts[2]) != 5 {
		return 0, "", 0, domain.ErrInvalidArgument
	}
	return companyID, parts[1], ordinal, nil
}
