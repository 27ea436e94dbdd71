package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBinding = Binding{
	QuoteID:      "q-123",
	PropertyID:   1,
	RoomTypeCode: "DBL",
	RatePlanCode: "BAR",
	CheckIn:      "2026-06-01",
	CheckOut:     "2026-06-03",
	TotalCents:   25000,
	Currency:     "EUR",
}

func fixedClock(s string) func() time.Time {
	ts, _ := time.Parse(time.RFC3339, s)
	return func() time.Time { return ts }
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewSigner([]byte("secret"), fixedClock("2026-05-01T10:00:00Z"))
	token, err := signer.Sign(testBinding, time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	total, err := signer.Verify(token, testBinding)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), total)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	signer := NewSigner([]byte("secret"), fixedClock("2026-05-01T10:00:00Z"))
	token, err := signer.Sign(testBinding, time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = signer.Verify(token+"x", testBinding)
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	other := NewSigner([]byte("other-secret"), fixedClock("2026-05-01T10:00:00Z"))
	_, err = other.Verify(token, testBinding)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyRejectsExpiredQuote(t *testing.T) {
	signer := NewSigner([]byte("secret"), fixedClock("2026-05-01T10:00:00Z"))
	token, err := signer.Sign(testBinding, time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	late := NewSigner([]byte("secret"), fixedClock("2026-05-01T11:00:00Z"))
	_, err = late.Verify(token, testBinding)
	assert.ErrorIs(t, err, ErrQuoteExpired)
}

func TestVerifyRejectsChangedTerms(t *testing.T) {
	signer := NewSigner([]byte("secret"), fixedClock("2026-05-01T10:00:00Z"))
	token, err := signer.Sign(testBinding, time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	for name, mutate := range map[string]func(b *Binding){
		"quote id":  func(b *Binding) { b.QuoteID = "q-999" },
		"property":  func(b *Binding) { b.PropertyID = 2 },
		"room type": func(b *Binding) { b.RoomTypeCode = "STE" },
		"rate plan": func(b *Binding) { b.RatePlanCode = "NR10" },
		"check-in":  func(b *Binding) { b.CheckIn = "2026-06-02" },
		"check-out": func(b *Binding) { b.CheckOut = "2026-06-04" },
	} {
		t.Run(name, func(t *testing.T) {
			expect := testBinding
			mutate(&expect)
			_, err := signer.Verify(token, expect)
			assert.ErrorIs(t, err, ErrQuoteMismatch)
		})
	}
}
