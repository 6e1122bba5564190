package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the rounding applied to every amount in the output.
const moneyPlaces = 2

// PricingOutput is the JSON result for one trade.
type PricingOutput struct {
	ID           string           `json:"id,omitempty"`
	Method       string           `json:"method,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	CashSettle   string           `json:"cash_settle_date,omitempty"`
	PremiumLeg   *decimal.Decimal `json:"premium_leg,omitempty"`
	DefaultLeg   *decimal.Decimal `json:"default_leg,omitempty"`
	PresentValue *decimal.Decimal `json:"present_value,omitempty"`
	Risk         *RiskOutput      `json:"risk,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// RiskOutput holds the analytic-only measures.
type RiskOutput struct {
	ParSpreadBP float64         `json:"par_spread_bp"`
	CS01        decimal.Decimal `json:"cs01"`
	IR01        decimal.Decimal `json:"ir01"`
}

// BatchOutput is the JSON result of the batch command.
type BatchOutput struct {
	RunID   string          `json:"run_id"`
	Results []PricingOutput `json:"results"`
	Failed  int             `json:"failed"`
}

// ImpliedOutput is the JSON result of the implied command.
type ImpliedOutput struct {
	ID         string   `json:"id,omitempty"`
	HazardRate *float64 `json:"hazard_rate,omitempty"`
	TargetPV   *float64 `json:"target_pv,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func money(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v).Round(moneyPlaces)
	return &d
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeError(w io.Writer, msg string) error {
	if err := writeJSON(w, PricingOutput{Error: msg}); err != nil {
		return err
	}
	return exitCode(1)
}
