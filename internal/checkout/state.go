package checkout

// State is a step of one checkout attempt.
type State string

const (
	Pending       State = "PENDING"
	SavingOrder   State = "SAVING_ORDER"
	BookingTables State = "BOOKING_TABLES"
	Done          State = "DONE"
	FailedOrder   State = "FAILED_ORDER"
	FailedBooking State = "FAILED_BOOKING"
)

// Terminal reports whether no further automatic transition follows s.
func (s State) Terminal() bool {
	return s == Done || s == FailedOrder || s == FailedBooking
}

// Retryable reports whether the caller may retry from s.
func (s State) Retryable() bool {
	return s == FailedOrder || s == FailedBooking
}
