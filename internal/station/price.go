package station

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FuelType identifies one of the price slots of a station.
type FuelType string

const (
	FuelGas     FuelType = "gas"
	FuelEthanol FuelType = "ethanol"
	FuelDiesel  FuelType = "diesel"
)

var ErrUnknownFuel = errors.New("unknown fuel type")

// MaxPrice is the exclusive upper bound of a valid price.
const MaxPrice = 1_000_000

const (
	maxPriceLength   = 32
	minPriceExponent = -20
	maxPriceExponent = 6
)

var maxPrice = decimal.NewFromInt(MaxPrice)

// FuelTypes lists the known fuel kinds in display order.
var FuelTypes = []FuelType{FuelGas, FuelEthanol, FuelDiesel}

// ParseFuelType accepts the canonical names plus a few common aliases.
func ParseFuelType(s string) (FuelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gas", "gasoline", "gasolina", "petrol":
		return FuelGas, nil
	case "ethanol", "etanol":
		return FuelEthanol, nil
	case "diesel", "gasoleo":
		return FuelDiesel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFuel, s)
}

// ParsePrice parses a price written with either a dot or a comma as the
// decimal separator.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if len(s) > maxPriceLength {
		return decimal.Zero, fmt.Errorf("%w: too long", ErrInvalidPrice)
	}
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if err := validatePrice(p); err != nil {
		return decimal.Zero, err
	}
	return p.Round(2), nil
}

// FormatPrice renders p with exactly two fraction digits.
func FormatPrice(p decimal.Decimal) string {
	return p.StringFixed(2)
}

// validatePrice rejects negative prices and prices of MaxPrice or more.
// The exponent is checked first: comparing or rounding a decimal with an
// extreme exponent expands it into a huge integer.
func validatePrice(p decimal.Decimal) error {
	if exp := p.Exponent(); exp < minPriceExponent || exp > maxPriceExponent {
		return fmt.Errorf("%w: exponent %d out of range", ErrInvalidPrice, exp)
	}
	if p.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidPrice, p.String())
	}
	if !p.LessThan(maxPrice) {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidPrice, p.String(), maxPrice.String())
	}
	return nil
}
