package billing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_TaxExclusive(t *testing.T) {
	got := Compute([]float64{600, 400}, DiscountSpec{}, TaxSpec{Rate: 20})

	assert.Equal(t, 1000.0, got.Subtotal)
	assert.Equal(t, 200.0, got.TaxAmount)
	assert.Equal(t, 1200.0, got.Total)
}

func TestCompute_TaxInclusive(t *testing.T) {
	got := Compute([]float64{600, 400}, DiscountSpec{}, TaxSpec{Rate: 20, Inclusive: true})

	assert.Equal(t, 1000.0, got.Subtotal)
	assert.InDelta(t, 166.67, got.TaxAmount, 0.001)
	assert.Equal(t, 1000.0, got.Total, "tax is already embedded in an inclusive total")
}

func TestCompute_DiscountPrecedence(t *testing.T) {
	// Percent and fixed amount both set: percent wins.
	got := Compute([]float64{1000}, DiscountSpec{Percent: 10, Amount: 50}, TaxSpec{})

	assert.Equal(t, 100.0, got.DiscountValue)
	assert.Equal(t, 900.0, got.Total)
}

func TestCompute_FixedDiscount(t *testing.T) {
	got := Compute([]float64{1000}, DiscountSpec{Amount: 50}, TaxSpec{})

	assert.Equal(t, 50.0, got.DiscountValue)
	assert.Equal(t, 950.0, got.Total)
}

func TestCompute_DiscountThenTax(t *testing.T) {
	// Tax applies to the discounted base, not the raw subtotal.
	got := Compute([]float64{1000}, DiscountSpec{Percent: 10}, TaxSpec{Rate: 20})

	assert.Equal(t, 900.0, got.Subtotal-got.DiscountValue)
	assert.Equal(t, 180.0, got.TaxAmount)
	assert.Equal(t, 1080.0, got.Total)
}

func TestCompute_Credits(t *testing.T) {
	got := Compute([]float64{1000, -250}, DiscountSpec{}, TaxSpec{})

	assert.Equal(t, 750.0, got.Subtotal)
	assert.Equal(t, 750.0, got.Total)
}

func TestCompute_Deterministic(t *testing.T) {
	amounts := []float64{199.99, 0.01, -50, 1234.56, 3.33}
	discount := DiscountSpec{Percent: 7.5}
	tax := TaxSpec{Rate: 19}

	first := Compute(amounts, discount, tax)
	second := Compute(amounts, discount, tax)
	assert.Equal(t, first, second)

	// Item order must not change the subtotal.
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]float64(nil), amounts...)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, first.Subtotal, Compute(shuffled, discount, tax).Subtotal)
	}
}

func TestComputeFromSubtotal_Override(t *testing.T) {
	got := ComputeFromSubtotal(500, DiscountSpec{}, TaxSpec{Rate: 10})

	assert.Equal(t, 500.0, got.Subtotal)
	assert.Equal(t, 50.0, got.TaxAmount)
	assert.Equal(t, 550.0, got.Total)
}

func TestItemAmount(t *testing.T) {
	tests := []struct {
		name         string
		quantity     float64
		rate         float64
		discount     float64
		manualAmount float64
		credit       bool
		expected     float64
	}{
		{"quantity times rate", 4, 25, 0, 0, false, 100},
		{"item discount subtracted", 4, 25, 10, 0, false, 90},
		{"manual amount when no quantity", 0, 0, 0, 75.5, false, 75.5},
		{"manual amount ignored when derived", 2, 50, 0, 999, false, 100},
		{"credit flips sign", 2, 30, 0, 0, true, -60},
		{"manual credit", 0, 0, 0, 40, true, -40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemAmount(tt.quantity, tt.rate, tt.discount, tt.manualAmount, tt.credit)
			assert.Equal(t, tt.expected, got)
		})
	}
}
