// Package pricing turns a wholesale price into a VAT-inclusive shelf price
// and decides when stock is marked down as promotional.
package pricing

import (
	"time"

	"github.com/zlagoda/zlagoda-backend/pkg/money"
)

// Fixed pricing rules.
var (
	VATMultiplier         = money.Must("1.20")
	PromotionalMultiplier = money.Must("0.8")
)

const (
	// PromotionWindowDays is the largest number of days before expiry at
	// which stock becomes eligible for promotion.
	PromotionWindowDays = 5
	// PromotionMinQuantity is the smallest on-hand quantity eligible for promotion.
	PromotionMinQuantity = 10
)

// Quote is the outcome of a price evaluation.
type Quote struct {
	PriceWithVAT money.Money
	FinalPrice   money.Money
	Promotional  bool
}

// PriceWithVAT returns round(wholesale * 1.20, 2).
func PriceWithVAT(wholesale money.Money) money.Money {
	return money.MulRound(wholesale, VATMultiplier)
}

// Evaluate prices stock received into a store product. quantityAfterReceipt
// is the on-hand quantity including the new delivery.
func Evaluate(wholesale money.Money, quantityAfterReceipt int, expiringDate, today time.Time) Quote {
	return quote(wholesale, IsPromotionEligible(quantityAfterReceipt, expiringDate, today))
}

// Manual prices a store product whose promotional flag is declared by the
// caller rather than derived.
func Manual(wholesale money.Money, promotional bool) Quote {
	return quote(wholesale, promotional)
}

// IsPromotionEligible applies the expiry-window and minimum-quantity rule.
// Already expired stock (negative days) is eligible.
func IsPromotionEligible(quantity int, expiringDate, today time.Time) bool {
	return DaysBetween(today, expiringDate) <= PromotionWindowDays && quantity >= PromotionMinQuantity
}

// DaysBetween counts whole calendar days from one civil date to another.
// Times of day are ignored.
func DaysBetween(from, to time.Time) int {
	f := civil(from)
	t := civil(to)
	return int(t.Sub(f).Hours() / 24)
}

// civil drops the time of day and pins the date to UTC so DST transitions
// never produce 23 or 25 hour days.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quote(wholesale money.Money, promotional bool) Quote {
	withVAT := PriceWithVAT(wholesale)
	final := withVAT
	if promotional {
		final = money.MulRound(withVAT, PromotionalMultiplier)
	}
	return Quote{
		PriceWithVAT: withVAT,
		FinalPrice:   final,
		Promotional:  promotional,
	}
}
