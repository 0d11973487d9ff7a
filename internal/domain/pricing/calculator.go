package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeUnitPrice   = errors.New("unit price must be >= 0")
	ErrNegativeQuantity    = errors.New("quantity must be >= 0")
	ErrNegativeDeliveryFee = errors.New("delivery fee must be >= 0")
	ErrOverflow            = errors.New("amount overflows")
)

// Minor は最小通貨単位（ペンス/セント）の金額。
// floatで金額を持たないための専用型。
type Minor int64

// Format は小数2桁の主通貨単位の文字列にする（1050 -> "10.50"）。
// 通貨記号は呼び出し側で付ける。
func (m Minor) Format() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}

// Add はオーバーフローを検出する足し算。
func (m Minor) Add(x Minor) (Minor, error) {
	if x > 0 && m > math.MaxInt64-x {
		return 0, ErrOverflow
	}
	if x < 0 && m < math.MinInt64-x {
		return 0, ErrOverflow
	}
	return m + x, nil
}

// カートの明細（スナップショット）
type Item struct {
	ID        string
	Name      string
	UnitPrice Minor
	Quantity  int64
}

type LineSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice Minor  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  Minor  `json:"subtotal"`
	Display   string `json:"display"`
}

type Summary struct {
	Lines           []LineSummary `json:"lines"`
	DeliveryFee     Minor         `json:"delivery_fee"`
	DeliveryDisplay string        `json:"delivery_display"`
	Total           Minor         `json:"total"`
	TotalDisplay    string        `json:"total_display"`
}

// LineSubtotal は unit price × quantity。
func LineSubtotal(it Item) (Minor, error) {
	if it.UnitPrice < 0 {
		return 0, ErrNegativeUnitPrice
	}
	if it.Quantity < 0 {
		return 0, ErrNegativeQuantity
	}
	if it.Quantity != 0 && int64(it.UnitPrice) > math.MaxInt64/it.Quantity {
		return 0, ErrOverflow
	}
	return it.UnitPrice * Minor(it.Quantity), nil
}

// Total は明細合計 + 配送料（空カートでも配送料は入る）。
func Total(items []Item, deliveryFee Minor) (Minor, error) {
	s, err := Summarize(items, deliveryFee)
	if err != nil {
		return 0, err
	}
	return s.Total, nil
}

// FormatTotal は画面に出す合計（"14.50" 形式）。
func FormatTotal(items []Item, deliveryFee Minor) (string, error) {
	s, err := Summarize(items, deliveryFee)
	if err != nil {
		return "", err
	}
	return s.TotalDisplay, nil
}

// Summarize は明細ごとの小計・配送料・合計をまとめて計算する。
// 割り算は最後のフォーマットだけなので、小計の和と合計は必ず一致する。
func Summarize(items []Item, deliveryFee Minor) (Summary, error) {
	if deliveryFee < 0 {
		return Summary{}, ErrNegativeDeliveryFee
	}

	lines := make([]LineSummary, 0, len(items))
	var total Minor

	for _, it := range items {
		sub, err := LineSubtotal(it)
		if err != nil {
			return Summary{}, err
		}
		total, err = total.Add(sub)
		if err != nil {
			return Summary{}, err
		}

		lines = append(lines, LineSummary{
			ID:        it.ID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  sub,
			Display:   sub.Format(),
		})
	}

	total, err := total.Add(deliveryFee)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Lines:           lines,
		DeliveryFee:     deliveryFee,
		DeliveryDisplay: deliveryFee.Format(),
		Total:           total,
		TotalDisplay:    total.Format(),
	}, nil
}
