package database

import (
	"crypto/rand"
	"math/big"
	"time"

	"bookhive/internal/models"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBookingReference builds "BK" + YYYYMMDD + 6 random [A-Z0-9] characters.
func NewBookingReference(at time.Time) string {
	suffix := make([]byte, models.BookingReferenceRandomLength)
	alphabetSize := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand only fails when the OS source is broken
			panic(err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return models.BookingReferencePrefix + at.Format("20060102") + string(suffix)
}
