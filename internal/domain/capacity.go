package domain

import "math"

// MaxCount is the largest attendee count or event capacity the stores can
// hold (a 32-bit INTEGER column).
const MaxCount = math.MaxInt32

// CanRegister reports whether requestedCount more attendees fit into an event
// holding currentTotal of maxAttendees. Callers validate that maxAttendees and
// requestedCount are positive and currentTotal is non-negative.
func CanRegister(maxAttendees, currentTotal, requestedCount int) bool {
	return requestedCount <= maxAttendees-currentTotal
}

// Remaining returns the open slots, never negative.
func Remaining(maxAttendees, currentTotal int) int {
	if currentTotal >= maxAttendees {
		return 0
	}
	return maxAttendees - currentTotal
}
