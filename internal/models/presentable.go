package models

// PresentableOffer is the provider-independent shape every offer is mapped to.
// All monetary values are in major currency units (EUR).
type PresentableOffer struct {
	NameInfo            NameInfo        `json:"nameInfo"`
	Speed               int             `json:"speed"`
	PriceInfo           PriceInfo       `json:"priceInfo"`
	ConnectionType      ConnectionType  `json:"connectionType"`
	DurationInMonths    *int            `json:"durationInMonths,omitempty"`
	TV                  *string         `json:"tv,omitempty"`
	InstallationService *bool           `json:"installationService,omitempty"`
	DisclaimerInfo      *DisclaimerInfo `json:"disclaimerInfo,omitempty"`
	// DiscountInfo is nil when the offer has no discount.
	DiscountInfo *DiscountInfo `json:"discountInfo,omitempty"`
}

// NameInfo identifies the offer.
type NameInfo struct {
	Company   Company `json:"company"`
	OfferName string  `json:"offerName"`
	ID        *string `json:"id,omitempty"`
}

// PriceInfo holds the monthly price and the price from month 25 on, if known.
type PriceInfo struct {
	Price                   float64  `json:"price"`
	MonthlyPriceAfter2Years *float64 `json:"monthlyPriceAfter2Years,omitempty"`
}

// DisclaimerInfo collects eligibility and limit conditions.
type DisclaimerInfo struct {
	LimitFrom     *int     `json:"limitFrom,omitempty"`
	MaxAge        *int     `json:"maxAge,omitempty"`
	MinOrderValue *float64 `json:"minOrderValue,omitempty"`
}

// DiscountInfo describes a discount. HowOften is the number of months the
// discount applies to and defaults to 1.
type DiscountInfo struct {
	AbsoluteDiscount *float64 `json:"absoluteDiscount,omitempty"`
	RelativeDiscount *int     `json:"relativeDiscount,omitempty"`
	MaxAmount        *float64 `json:"maxAmount,omitempty"`
	HowOften         int      `json:"howOften"`
}
