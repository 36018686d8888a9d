package types

// BookingStatus represents the persisted lifecycle status of a booking record.
// The numeric values are stored in the database and must not be renumbered.
type BookingStatus int

const (
	StatusUnset       BookingStatus = 0
	StatusDownloaded  BookingStatus = 1
	StatusCancelled   BookingStatus = 2
	StatusReserved    BookingStatus = 7
	StatusDownloading BookingStatus = 8
	StatusError       BookingStatus = 9
)

// String returns a human readable name for the status.
func (s BookingStatus) String() string {
	switch s {
	case StatusUnset:
		return "unset"
	case StatusDownloaded:
		return "downloaded"
	case StatusCancelled:
		return "cancelled"
	case StatusReserved:
		return "reserved"
	case StatusDownloading:
		return "downloading"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is one a record does not leave
// within a single batch run.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusDownloaded || s == StatusCancelled || s == StatusError
}

// IsReservable reports whether a record in this status may be reserved
// again by the admission flow. Downloaded records stay reservable because
// the saved file may have been deleted since.
func (s BookingStatus) IsReservable() bool {
	switch s {
	case StatusUnset, StatusDownloaded, StatusCancelled, StatusError:
		return true
	default:
		return false
	}
}
