package util

import (
	"encoding/base32"

	"github.com/google/uuid"
)

const BookingCodePrefix = "BOOK-"

// BookingCodeAlphabet is Crockford's base32. It drops I, L, O and U so codes survive being read aloud.
const BookingCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var bookingCodeEncoding = base32.NewEncoding(BookingCodeAlphabet).WithPadding(base32.NoPadding)

func GenerateID() string {
	return uuid.NewString()
}

// GenerateBookingCode returns a human readable code such as BOOK-3F9QK2CD.
// The 8 symbols carry 40 random bits taken from a v4 uuid.
func GenerateBookingCode() string {
	id := uuid.New()
	return BookingCodePrefix + bookingCodeEncoding.EncodeToString(id[:5])
}
