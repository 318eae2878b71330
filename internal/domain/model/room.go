package model

import (
	"strings"
	"time"

	"visitgate/internal/domain"
)

// Room is a physical conference room. IsActive is decided solely by the
// activation synchronizer, never toggled directly.
type Room struct {
	ID        int64
	CompanyID int64
	Number    int
	Name      string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
}

// NewRoom validates and constructs a room. Rooms start locked; the
// synchronizer activates them if the plan has headroom.
func NewRoom(companyID int64, number int, name string, capacity int) (*Room, error) {
	name = strings.TrimSpace(name)
	if companyID <= 0 || number <= 0 || name == "" || capacity <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Room{
		CompanyID: companyID,
		Number:    number,
		Name:      name,
		Capacity:  capacity,
		IsActive:  false,
		CreatedAt: time.Now(),
	}, nil
}
