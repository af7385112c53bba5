package model

import "time"

const DayLayout = "2006-01-02"

// Reservation is an admitted, persisted seat occupancy. It is never mutated after creation.
type Reservation struct {
	ID        int64     `json:"id" bson:"_id"`
	SeatID    int64     `json:"seat_id" bson:"seat_id"`
	BeginTime time.Time `json:"begin_time" bson:"begin_time"`
	EndTime   time.Time `json:"end_time" bson:"end_time"`
	Day       string    `json:"day" bson:"day"`
	UserEmail string    `json:"user_email" bson:"user_email"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Proposal is a candidate reservation that has not been admitted yet.
type Proposal struct {
	SeatID    int64
	BeginTime time.Time
	EndTime   time.Time
	UserEmail string
}

// Day is the calendar date of BeginTime in BeginTime's own location.
func (p Proposal) Day() string {
	return DayOf(p.BeginTime)
}

func DayOf(t time.Time) string {
	return t.Format(DayLayout)
}

// ProposalRequest is the wire shape of a reservation request. UserEmail never comes
// from the body; it is filled from the caller identity before validation.
type ProposalRequest struct {
	SeatID    int64      `json:"seat_id" validate:"required,min=1"`
	BeginTime *time.Time `json:"begin_time" validate:"required"`
	EndTime   *time.Time `json:"end_time" validate:"required"`
	UserEmail string     `json:"-" validate:"required,email,max=254"`
}

func (r *ProposalRequest) Proposal() Proposal {
	p := Proposal{
		SeatID:    r.SeatID,
		UserEmail: r.UserEmail,
	}
	if r.BeginTime != nil {
		p.BeginTime = *r.BeginTime
	}
	if r.EndTime != nil {
		p.EndTime = *r.EndTime
	}
	return p
}
