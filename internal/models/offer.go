package models

import "math"

// UnlimitedDataLimit marks offers without a throttling threshold.
const UnlimitedDataLimit = math.MaxInt32

// InternetOffer is a provider-specific offer record.
//
// The set of implementations is closed: ByteMeOffer, PingPerfectOffer,
// ServusSpeedOffer, VerbynDichOffer and WebWunderOffer. Consumers switch
// over the concrete type and must handle all five.
type InternetOffer interface {
	// Company returns the provider that produced the record.
	Company() Company
	internetOffer()
}

// ByteMeOffer is one decoded row of the ByteMe CSV feed.
type ByteMeOffer struct {
	ProductID                 int            `json:"productId"`
	ProviderName              string         `json:"providerName"`
	Speed                     int            `json:"speed"`
	MonthlyPrice              float64        `json:"monthlyPrice"`
	MonthlyPriceAfter24Months float64        `json:"monthlyPriceAfter24Months"`
	DurationInMonths          int            `json:"durationInMonths"`
	ConnectionType            ConnectionType `json:"connectionType"`
	InstallationService       bool           `json:"installationService"`
	TV                        string         `json:"tv"`
	// LimitFrom is UnlimitedDataLimit when the row carries no limit.
	LimitFrom int  `json:"limitFrom"`
	MaxAge    *int `json:"maxAge,omitempty"`
	// VoucherType is "absolute", "relative" or empty.
	VoucherType string `json:"voucherType"`
	// VoucherValue is cents for absolute vouchers and percent for relative ones.
	VoucherValue int `json:"voucherValue"`
}

// PingPerfectProductInfo is the nested product block of a PingPerfect offer.
type PingPerfectProductInfo struct {
	Speed                    int            `json:"speed"`
	ContractDurationInMonths int            `json:"contractDurationInMonths"`
	ConnectionType           ConnectionType `json:"connectionType"`
	TV                       *string        `json:"tv,omitempty"`
	LimitFrom                *int           `json:"limitFrom,omitempty"`
	MaxAge                   *int           `json:"maxAge,omitempty"`
}

// PingPerfectPricingDetails is the nested pricing block of a PingPerfect offer.
type PingPerfectPricingDetails struct {
	MonthlyCostInCent   int    `json:"monthlyCostInCent"`
	InstallationService string `json:"installationService"`
}

// PingPerfectOffer mirrors the PingPerfect response items one to one.
type PingPerfectOffer struct {
	ProviderName   string                    `json:"providerName"`
	ProductInfo    PingPerfectProductInfo    `json:"productInfo"`
	PricingDetails PingPerfectPricingDetails `json:"pricingDetails"`
}

// ServusSpeedOffer is a flattened ServusSpeed product detail.
type ServusSpeedOffer struct {
	ProviderName             string         `json:"providerName"`
	Speed                    int            `json:"speed"`
	ContractDurationInMonths int            `json:"contractDurationInMonths"`
	ConnectionType           ConnectionType `json:"connectionType"`
	TV                       *string        `json:"tv,omitempty"`
	LimitFrom                *int           `json:"limitFrom,omitempty"`
	MaxAge                   *int           `json:"maxAge,omitempty"`
	MonthlyCostInCent        int            `json:"monthlyCostInCent"`
	InstallationService      bool           `json:"installationService"`
	// Discount is already converted to major currency units.
	Discount float64 `json:"discount"`
}

// VerbynDichOffer holds the fields mined from a VerbynDich description.
// Everything except Product, Price, ConnectionType and Speed is optional.
type VerbynDichOffer struct {
	Product                   string         `json:"product"`
	Price                     float64        `json:"price"`
	ConnectionType            ConnectionType `json:"connectionType"`
	Speed                     int            `json:"speed"`
	LimitFrom                 *int           `json:"limitFrom,omitempty"`
	MonthlyPriceAfter24Months *float64       `json:"monthlyPriceAfter24Months,omitempty"`
	MinOrderValue             *float64       `json:"minOrderValue,omitempty"`
	MaxDiscount               *float64       `json:"maxDiscount,omitempty"`
	DiscountUntil24thMonth    *int           `json:"discountUntil24thMonth,omitempty"`
	OneTimeDiscountValue      *float64       `json:"oneTimeDiscountValue,omitempty"`
	MaxAge                    *int           `json:"maxAge,omitempty"`
	TV                        *string        `json:"tv,omitempty"`
	MinContractDuration       *int           `json:"minContractDuration,omitempty"`
}

// WebWunderOffer is one product block of the WebWunder SOAP response.
type WebWunderOffer struct {
	ID                        string         `json:"id"`
	ProviderName              string         `json:"providerName"`
	Speed                     int            `json:"speed"`
	MonthlyPrice              float64        `json:"monthlyPrice"`
	MonthlyPriceAfter24Months float64        `json:"monthlyPriceAfter24Months"`
	ContractDuration          int            `json:"contractDuration"`
	ConnectionType            ConnectionType `json:"connectionType"`
	// DiscountAvailable is derived as DiscountAmount > 0.
	DiscountAvailable   bool    `json:"discountAvailable"`
	DiscountAmount      float64 `json:"discountAmount"`
	InstallationService bool    `json:"installationService"`
}

func (ByteMeOffer) Company() Company      { return CompanyByteMe }
func (PingPerfectOffer) Company() Company { return CompanyPingPerfect }
func (ServusSpeedOffer) Company() Company { return CompanyServusSpeed }
func (VerbynDichOffer) Company() Company  { return CompanyVerbynDich }
func (WebWunderOffer) Company() Company   { return CompanyWebWunder }

func (ByteMeOffer) internetOffer()      {}
func (PingPerfectOffer) internetOffer() {}
func (ServusSpeedOffer) internetOffer() {}
func (VerbynDichOffer) internetOffer()  {}
func (WebWunderOffer) internetOffer()   {}
