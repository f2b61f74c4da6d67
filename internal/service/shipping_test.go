package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShippingPolicy_Fee(t *testing.T) {
	t.Parallel()

	p := NewShippingPolicy([]string{"Hà Nội", "Hồ Chí Minh"}, homeFee, otherFee)
	tests := []struct {
		city string
		want int64
	}{
		{"Hà Nội", homeFee},
		{"ha noi", homeFee},
		{"  HA   NOI ", homeFee},
		{"Ho Chi Minh", homeFee},
		{"Đà Nẵng", otherFee},
		{"", otherFee},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Fee(tt.city), tt.city)
	}
}

func TestNormalizeCity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "da nang", normalizeCity("Đà  Nẵng"))
	assert.Equal(t, "ha noi", normalizeCity("HÀ NỘI"))
}
