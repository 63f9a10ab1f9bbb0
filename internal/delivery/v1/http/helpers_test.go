package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePriceToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"599.99", 59999, nil},
		{"600", 60000, nil},
		{" 0.5 ", 50, nil},
		{"", 0, e.ErrInvalidPrice},
		{"abc", 0, e.ErrInvalidPrice},
		{"0", 0, e.ErrPriceMustBePositive},
		{"-1", 0, e.ErrPriceMustBePositive},
		{"1.999", 0, e.ErrPricePrecision},
		{"1000000001", 0, e.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePriceToCents(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "3600.00", formatPrice(decimal.NewFromInt(360000)))
	assert.Equal(t, "874.13", formatPrice(decimal.RequireFromString("87412.5")))
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.Wrap("op", e.ErrNotFound), http.StatusNotFound},
		{e.Wrap("op", e.ErrForbidden), http.StatusForbidden},
		{e.Wrap("op", e.ErrOrderLocked), http.StatusConflict},
		{e.Wrap("op", e.ErrInvalidQuantity), http.StatusBadRequest},
		{e.Wrap("op", e.ErrQuantityTooLarge), http.StatusBadRequest},
		{e.Wrap("op", e.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{e.Unavailable("op", errors.New("dial")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, msg := ToHTTPResponse(tt.err)
			assert.Equal(t, tt.code, code)
			assert.NotContains(t, msg, "op:")
		})
	}
}
