package services

import (
	"crypto/rand"
	"fmt"
	"time"
)

// FormatCents renders integer minor units as a decimal string ("270.00").
// Display only; all arithmetic stays on int64.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// NewConfirmationNumber returns a guest-facing reservation identifier such
// as HTL-20240601-3F9C2A: the booking date plus a random suffix.
func NewConfirmationNumber(now time.Time) string {
	return fmt.Sprintf("HTL-%s-%s", now.Format("20060102"), randomSuffix(3))
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the clock rather than return an empty suffix.
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	const hex = "0123456789ABCDEF"
	out := make([]byte, n*2)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out)
}
