package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ShippingPolicy is fixed-zone pricing: one fee for home cities, another
// for everywhere else.
type ShippingPolicy struct {
	homes    map[string]struct{}
	HomeFee  int64
	OtherFee int64
}

func NewShippingPolicy(homeCities []string, homeFee, otherFee int64) ShippingPolicy {
	homes := make(map[string]struct{}, len(homeCities))
	for _, c := range homeCities {
		if k := normalizeCity(c); k != "" {
			homes[k] = struct{}{}
		}
	}
	return ShippingPolicy{homes: homes, HomeFee: homeFee, OtherFee: otherFee}
}

func (p ShippingPolicy) Fee(city string) int64 {
	if _, ok := p.homes[normalizeCity(city)]; ok {
		return p.HomeFee
	}
	return p.OtherFee
}

// normalizeCity folds case, strips combining marks and collapses spaces, so
// "Hà Nội", "ha noi" and "HA  NOI" compare equal.
func normalizeCity(city string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, city)
	if err != nil {
		s = city
	}
	s = strings.NewReplacer("đ", "d", "Đ", "d").Replace(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
