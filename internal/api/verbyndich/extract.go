package verbyndich

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

// euro matches a whole or decimal euro amount, e.g. "39", "39,99" or "1.000".
// A dot followed by exactly three digits groups thousands.
const euro = `(\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d+(?:[.,]\d{1,2})?)`

var groupedEuro = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?$`)

// headlineRule must match for a description to become an offer.
// Groups: price, connection type, speed.
var headlineRule = regexp.MustCompile(`Für nur ` + euro + `€ im Monat erhalten Sie eine ([A-Za-z]+)-Verbindung mit einer Geschwindigkeit von (\d+) Mbit/s`)

// Optional rules. Each captures a single value in group 1.
var (
	limitFromRule           = regexp.MustCompile(`Ab (\d+)GB pro Monat wird die Geschwindigkeit gedrosselt`)
	priceAfter24MonthsRule  = regexp.MustCompile(`Ab dem 24\. Monat beträgt der monatliche Preis ` + euro + `€`)
	minOrderValueRule       = regexp.MustCompile(`Der Mindestbestellwert beträgt ` + euro + `€`)
	maxDiscountRule         = regexp.MustCompile(`Der maximale Rabatt beträgt ` + euro + `€`)
	maxAgeRule              = regexp.MustCompile(`Dieses Angebot ist nur für Personen unter (\d+) Jahren verfügbar`)
	discountUntil24thRule   = regexp.MustCompile(`Mit diesem Angebot erhalten Sie einen Rabatt von (\d+)% auf Ihre monatliche Rechnung bis zum 24\. Monat`)
	oneTimeDiscountRule     = regexp.MustCompile(`Mit diesem Angebot erhalten Sie einen einmaligen Rabatt von ` + euro + `€ auf Ihre monatliche Rechnung`)
	tvRule                  = regexp.MustCompile(`Zusätzlich sind folgende Fernsehsender enthalten ([^.]+)`)
	minContractDurationRule = regexp.MustCompile(`Bitte beachten Sie, dass die Mindestvertragslaufzeit (\d+)\s*,?\s*Monate beträgt`)
)

// extractOffer mines a VerbynDich description. ok is false when the
// headline sentence is missing or one of its values does not parse.
func extractOffer(product, description string) (models.VerbynDichOffer, bool) {
	text := norm.NFC.String(description)

	m := headlineRule.FindStringSubmatch(text)
	if m == nil {
		return models.VerbynDichOffer{}, false
	}
	price, err := parseEuro(m[1])
	if err != nil {
		return models.VerbynDichOffer{}, false
	}
	speed, err := strconv.Atoi(m[3])
	if err != nil {
		return models.VerbynDichOffer{}, false
	}

	return models.VerbynDichOffer{
		Product:                   product,
		Price:                     price,
		ConnectionType:            models.ParseConnectionType(m[2]),
		Speed:                     speed,
		LimitFrom:                 matchInt(limitFromRule, text),
		MonthlyPriceAfter24Months: matchEuro(priceAfter24MonthsRule, text),
		MinOrderValue:             matchEuro(minOrderValueRule, text),
		MaxDiscount:               matchEuro(maxDiscountRule, text),
		DiscountUntil24thMonth:    matchInt(discountUntil24thRule, text),
		OneTimeDiscountValue:      matchEuro(oneTimeDiscountRule, text),
		MaxAge:                    matchInt(maxAgeRule, text),
		TV:                        matchString(tvRule, text),
		MinContractDuration:       matchInt(minContractDurationRule, text),
	}, true
}

func parseEuro(s string) (float64, error) {
	if groupedEuro.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func matchInt(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func matchEuro(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := parseEuro(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func matchString(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return nil
	}
	return &v
}
