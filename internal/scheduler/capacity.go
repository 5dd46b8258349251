package scheduler

// IsAtCapacity reports whether signups have reached the advertised ticket
// count. A nil ticket count means unlimited seating.
func IsAtCapacity(ticketsAvailable *int, currentSignupCount int) bool {
	if ticketsAvailable == nil {
		return false
	}
	return currentSignupCount >= *ticketsAvailable
}
