package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

// BuyerFeeRate наценка платформы, которую платит клиент сверх согласованной суммы.
var BuyerFeeRate = decimal.RequireFromString("0.025")

// ChargeBreakdown разбивка суммы списания с клиента.
type ChargeBreakdown struct {
	AgreedAmount decimal.Decimal `json:"agreedAmount"`
	BuyerFee     decimal.Decimal `json:"buyerFee"`
	TotalCharged decimal.Decimal `json:"totalCharged"`
}

// ComputeChargeBreakdown считает комиссию и итог. Используется и для отображения, и для реального списания.
func ComputeChargeBreakdown(agreedAmount decimal.Decimal) ChargeBreakdown {
	fee := agreedAmount.Mul(BuyerFeeRate).Round(2)
	return ChargeBreakdown{
		AgreedAmount: agreedAmount,
		BuyerFee:     fee,
		TotalCharged: agreedAmount.Add(fee),
	}
}

// MinorUnits переводит сумму в центы для платёжного процессора.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits обратное преобразование.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

type Budget struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func NewBudget(min, max decimal.Decimal) (Budget, error) {
	if min.IsNegative() || max.IsNegative() {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "бюджет не может быть отрицательным")
	}
	if min.GreaterThan(max) {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "минимальный бюджет не может превышать максимальный")
	}
	return Budget{Min: min, Max: max}, nil
}

func (b Budget) IsInRange(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(b.Min) && amount.LessThanOrEqual(b.Max)
}

func (b Budget) String() string {
	return fmt.Sprintf("%s - %s", b.Min.StringFixed(2), b.Max.StringFixed(2))
}
