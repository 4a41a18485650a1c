// Package normalize maps provider-specific offer records onto the common
// PresentableOffer shape.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

var (
	// ErrUnhandledVariant is returned for an InternetOffer type without a mapping.
	ErrUnhandledVariant = errors.New("unhandled offer variant")
	// ErrInvalidOffer is returned when a record carries values no offer can have.
	ErrInvalidOffer = errors.New("invalid offer")
)

// percentageDiscountMonths is how many monthly bills a VerbynDich
// percentage discount applies to.
const percentageDiscountMonths = 24

// Offer maps a single provider record.
func Offer(offer models.InternetOffer) (models.PresentableOffer, error) {
	switch o := offer.(type) {
	case models.ByteMeOffer:
		return byteMe(o)
	case models.PingPerfectOffer:
		return pingPerfect(o)
	case models.ServusSpeedOffer:
		return servusSpeed(o)
	case models.VerbynDichOffer:
		return verbynDich(o)
	case models.WebWunderOffer:
		return webWunder(o)
	default:
		return models.PresentableOffer{}, fmt.Errorf("%w: %T", ErrUnhandledVariant, offer)
	}
}

// Offers maps every record and returns the errors of the records it dropped.
func Offers(offers []models.InternetOffer) ([]models.PresentableOffer, []error) {
	result := make([]models.PresentableOffer, 0, len(offers))
	var dropped []error
	for _, o := range offers {
		p, err := Offer(o)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		result = append(result, p)
	}
	return result, dropped
}

func byteMe(o models.ByteMeOffer) (models.PresentableOffer, error) {
	if o.MonthlyPrice < 0 || o.MonthlyPriceAfter24Months < 0 || o.VoucherValue < 0 {
		return models.PresentableOffer{}, fmt.Errorf("%w: negative amount in ByteMe offer %d", ErrInvalidOffer, o.ProductID)
	}

	var discount *models.DiscountInfo
	if o.VoucherType != "" && o.VoucherValue != 0 {
		switch o.VoucherType {
		case "absolute":
			discount = &models.DiscountInfo{AbsoluteDiscount: ptr(float64(o.VoucherValue) / 100), HowOften: 1}
		case "relative":
			discount = &models.DiscountInfo{RelativeDiscount: ptr(o.VoucherValue), HowOften: 1}
		}
	}

	var limitFrom *int
	if o.LimitFrom != models.UnlimitedDataLimit {
		limitFrom = ptr(o.LimitFrom)
	}

	return models.PresentableOffer{
		NameInfo: models.NameInfo{Company: models.CompanyByteMe, OfferName: o.ProviderName},
		Speed:    o.Speed,
		PriceInfo: models.PriceInfo{
			Price:                   o.MonthlyPrice,
			MonthlyPriceAfter2Years: ptr(o.MonthlyPriceAfter24Months),
		},
		ConnectionType:      o.ConnectionType.OrUnknown(),
		DurationInMonths:    ptr(o.DurationInMonths),
		TV:                  nonEmpty(o.TV),
		InstallationService: ptr(o.InstallationService),
		DisclaimerInfo:      disclaimer(limitFrom, o.MaxAge, nil),
		DiscountInfo:        discount,
	}, nil
}

func pingPerfect(o models.PingPerfectOffer) (models.PresentableOffer, error) {
	if o.PricingDetails.MonthlyCostInCent < 0 {
		return models.PresentableOffer{}, fmt.Errorf("%w: negative amount in PingPerfect offer %q", ErrInvalidOffer, o.ProviderName)
	}

	return models.PresentableOffer{
		NameInfo: models.NameInfo{Company: models.CompanyPingPerfect, OfferName: o.ProviderName},
		Speed:    o.ProductInfo.Speed,
		PriceInfo: models.PriceInfo{
			Price: cents(o.PricingDetails.MonthlyCostInCent),
		},
		ConnectionType:      o.ProductInfo.ConnectionType.OrUnknown(),
		DurationInMonths:    ptr(o.ProductInfo.ContractDurationInMonths),
		TV:                  o.ProductInfo.TV,
		InstallationService: installationFlag(o.PricingDetails.InstallationService),
		DisclaimerInfo:      disclaimer(o.ProductInfo.LimitFrom, o.ProductInfo.MaxAge, nil),
	}, nil
}

func servusSpeed(o models.ServusSpeedOffer) (models.PresentableOffer, error) {
	if o.MonthlyCostInCent < 0 || o.Discount < 0 {
		return models.PresentableOffer{}, fmt.Errorf("%w: negative amount in ServusSpeed offer %q", ErrInvalidOffer, o.ProviderName)
	}

	var discount *models.DiscountInfo
	if o.Discount > 0 {
		discount = &models.DiscountInfo{AbsoluteDiscount: ptr(o.Discount), HowOften: 1}
	}

	return models.PresentableOffer{
		NameInfo: models.NameInfo{Company: models.CompanyServusSpeed, OfferName: o.ProviderName},
		Speed:    o.Speed,
		PriceInfo: models.PriceInfo{
			Price: cents(o.MonthlyCostInCent),
		},
		ConnectionType:      o.ConnectionType.OrUnknown(),
		DurationInMonths:    ptr(o.ContractDurationInMonths),
		TV:                  o.TV,
		InstallationService: ptr(o.InstallationService),
		DisclaimerInfo:      disclaimer(o.LimitFrom, o.MaxAge, nil),
		DiscountInfo:        discount,
	}, nil
}

func verbynDich(o models.VerbynDichOffer) (models.PresentableOffer, error) {
	if o.Price < 0 || negative(o.MonthlyPriceAfter24Months) || negative(o.OneTimeDiscountValue) ||
		negative(o.MaxDiscount) || negative(o.MinOrderValue) {
		return models.PresentableOffer{}, fmt.Errorf("%w: negative amount in VerbynDich offer %q", ErrInvalidOffer, o.Product)
	}

	var discount *models.DiscountInfo
	if o.OneTimeDiscountValue != nil || o.DiscountUntil24thMonth != nil {
		howOften := 1
		if o.DiscountUntil24thMonth != nil {
			howOften = percentageDiscountMonths
		}
		discount = &models.DiscountInfo{
			AbsoluteDiscount: o.OneTimeDiscountValue,
			RelativeDiscount: o.DiscountUntil24thMonth,
			MaxAmount:        o.MaxDiscount,
			HowOften:         howOften,
		}
	}

	return models.PresentableOffer{
		NameInfo: models.NameInfo{Company: models.CompanyVerbynDich, OfferName: o.Product},
		Speed:    o.Speed,
		PriceInfo: models.PriceInfo{
			Price:                   o.Price,
			MonthlyPriceAfter2Years: o.MonthlyPriceAfter24Months,
		},
		ConnectionType:   o.ConnectionType.OrUnknown(),
		DurationInMonths: o.MinContractDuration,
		TV:               o.TV,
		DisclaimerInfo:   disclaimer(o.LimitFrom, o.MaxAge, o.MinOrderValue),
		DiscountInfo:     discount,
	}, nil
}

func webWunder(o models.WebWunderOffer) (models.PresentableOffer, error) {
	if o.MonthlyPrice < 0 || o.MonthlyPriceAfter24Months < 0 || o.DiscountAmount < 0 {
		return models.PresentableOffer{}, fmt.Errorf("%w: negative amount in WebWunder offer %s", ErrInvalidOffer, o.ID)
	}

	var discount *models.DiscountInfo
	if o.DiscountAvailable {
		discount = &models.DiscountInfo{AbsoluteDiscount: ptr(o.DiscountAmount), HowOften: 1}
	}

	return models.PresentableOffer{
		NameInfo: models.NameInfo{Company: models.CompanyWebWunder, OfferName: o.ProviderName, ID: nonEmpty(o.ID)},
		Speed:    o.Speed,
		PriceInfo: models.PriceInfo{
			Price:                   o.MonthlyPrice,
			MonthlyPriceAfter2Years: ptr(o.MonthlyPriceAfter24Months),
		},
		ConnectionType:      o.ConnectionType.OrUnknown(),
		DurationInMonths:    ptr(o.ContractDuration),
		InstallationService: ptr(o.InstallationService),
		DiscountInfo:        discount,
	}, nil
}

// installationFlag reads PingPerfect's free-text installation field.
func installationFlag(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "ja":
		return ptr(true)
	case "false", "no", "nein":
		return ptr(false)
	default:
		return nil
	}
}

func disclaimer(limitFrom, maxAge *int, minOrderValue *float64) *models.DisclaimerInfo {
	if limitFrom == nil && maxAge == nil && minOrderValue == nil {
		return nil
	}
	return &models.DisclaimerInfo{LimitFrom: limitFrom, MaxAge: maxAge, MinOrderValue: minOrderValue}
}

func cents(v int) float64 {
	return float64(v) / 100
}

func negative(v *float64) bool {
	return v != nil && *v < 0
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T {
	return &v
}
