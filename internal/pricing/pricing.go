// Package pricing считает чистое количество и сумму накладной по сырым замерам.
// Пакет не имеет побочных эффектов.
package pricing

import (
	"errors"
	"fmt"

	"BiomassLedger/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// QuantityPlaces знаков после запятой у чистого количества.
	QuantityPlaces int32 = 3
	// TotalPlaces знаков после запятой у суммы (валюта).
	TotalPlaces int32 = 2
)

var (
	ErrUnknownBasis  = errors.New("unknown basis")
	ErrNegativeInput = errors.New("measurement must not be negative")
	ErrNegativePrice = errors.New("unit price must not be negative")
)

var thousand = decimal.NewFromInt(1000)

// Measurement сырые замеры. Брутто и тара всегда в кг; Volume в м³.
type Measurement struct {
	Gross  decimal.Decimal
	Tare   decimal.Decimal
	Volume decimal.Decimal
}

// Result итог расчёта. Net и Total уже округлены.
type Result struct {
	Basis     model.Basis
	Net       decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

type rule struct {
	validate func(Measurement) error
	net      func(Measurement) decimal.Decimal
}

// rules расчёт по каждому варианту базиса.
var rules = map[model.Basis]rule{
	model.BasisMassSmall: {
		validate: validateMass,
		net:      clampedNet,
	},
	model.BasisMassLarge: {
		validate: validateMass,
		net: func(m Measurement) decimal.Decimal {
			return clampedNet(m).Div(thousand)
		},
	},
	model.BasisVolume: {
		validate: func(m Measurement) error {
			if m.Volume.IsNegative() {
				return fmt.Errorf("volume %s: %w", m.Volume, ErrNegativeInput)
			}
			return nil
		},
		// брутто/тара для объёма игнорируются
		net: func(m Measurement) decimal.Decimal { return m.Volume },
	},
}

func validateMass(m Measurement) error {
	if m.Gross.IsNegative() {
		return fmt.Errorf("gross %s: %w", m.Gross, ErrNegativeInput)
	}
	if m.Tare.IsNegative() {
		return fmt.Errorf("tare %s: %w", m.Tare, ErrNegativeInput)
	}
	return nil
}

// clampedNet брутто минус тара; отрицательное значение обрезается до нуля.
func clampedNet(m Measurement) decimal.Decimal {
	return decimal.Max(decimal.Zero, m.Gross.Sub(m.Tare))
}

// Quote считает количество и сумму. Округление применяется один раз, на выходе;
// сумма считается от неокруглённого количества.
func Quote(basis model.Basis, m Measurement, prices model.PriceTable) (Result, error) {
	r, ok := rules[basis]
	if !ok {
		return Result{}, fmt.Errorf("%q: %w", basis, ErrUnknownBasis)
	}
	if err := r.validate(m); err != nil {
		return Result{}, err
	}
	price := prices[basis]
	if price.IsNegative() {
		return Result{}, fmt.Errorf("%s: %w", price, ErrNegativePrice)
	}

	net := r.net(m)
	return Result{
		Basis:     basis,
		Net:       net.Round(QuantityPlaces),
		Unit:      basis.Unit(),
		UnitPrice: price,
		Total:     net.Mul(price).Round(TotalPlaces),
	}, nil
}

// FormatQuantity форматирует количество для документа ("1000.000 kg").
func FormatQuantity(r Result) string {
	return r.Net.StringFixed(QuantityPlaces) + " " + r.Unit
}

// FormatTotal форматирует сумму ("50.00").
func FormatTotal(total decimal.Decimal) string {
	return total.StringFixed(TotalPlaces)
}
