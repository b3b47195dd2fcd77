package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

const (
	DefaultCurrency = "KES"
	// GlowCurrency помечает строки журнала, которые двигают GlowCoins, а не деньги.
	GlowCurrency = "GLOW"
)

// MaxAmount верхняя граница одной операции.
var MaxAmount = decimal.NewFromInt(10_000_000)

// NewAmount проверяет сумму операции: строго больше нуля, не больше двух знаков после запятой.
func NewAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.Validation("сумма должна быть положительной")
	}
	return checkBounds(amount)
}

// NewPrice проверяет цену позиции каталога. В отличие от суммы операции
// цена может быть нулевой: бесплатная консультация остаётся услугой.
func NewPrice(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, apperror.Validation("цена не может быть отрицательной")
	}
	return checkBounds(price)
}

func checkBounds(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, apperror.Validation("сумма превышает допустимый предел")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, apperror.Validation("сумма не может содержать больше двух знаков после запятой")
	}
	return amount, nil
}

// GroupTotal считает стоимость групповой сессии: цена × количество гостей.
func GroupTotal(price decimal.Decimal, guests int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(guests)))
}
