package model

type RejectionReason string

const (
	ReasonInvalidWindow        RejectionReason = "INVALID_WINDOW"
	ReasonOutsideBusinessHours RejectionReason = "OUTSIDE_BUSINESS_HOURS"
	ReasonInThePast            RejectionReason = "IN_THE_PAST"
	ReasonSpansMultipleDays    RejectionReason = "SPANS_MULTIPLE_DAYS"
	ReasonSeatConflict         RejectionReason = "SEAT_CONFLICT"
	ReasonDailyQuotaExceeded   RejectionReason = "DAILY_QUOTA_EXCEEDED"
)

var rejectionMessages = map[RejectionReason]string{
	ReasonInvalidWindow:        "End time must be after begin time",
	ReasonOutsideBusinessHours: "Reservation time is outside business hours",
	ReasonInThePast:            "Reservation time must be in the future",
	ReasonSpansMultipleDays:    "Begin and end time must be on the same day",
	ReasonSeatConflict:         "Seat is already reserved during this time",
	ReasonDailyQuotaExceeded:   "You can only make one reservation per day",
}

// Rejection is an expected, caller-presentable refusal of a proposal.
// It carries exactly one reason.
type Rejection struct {
	Reason  RejectionReason `json:"code"`
	Message string          `json:"message"`
}

func Reject(reason RejectionReason) *Rejection {
	return &Rejection{
		Reason:  reason,
		Message: rejectionMessages[reason],
	}
}

func (r *Rejection) Error() string {
	return string(r.Reason) + ": " + r.Message
}

// Admission is the terminal state of a proposal: exactly one of Reservation or
// Rejection is set.
type Admission struct {
	Reservation *Reservation
	Rejection   *Rejection
}

func Admitted(r *Reservation) Admission {
	return Admission{Reservation: r}
}

func Rejected(reason RejectionReason) Admission {
	return Admission{Rejection: Reject(reason)}
}

func (a Admission) IsAdmitted() bool {
	return a.Reservation != nil && a.Rejection == nil
}
