package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Signal represents the human-facing procurement action
type Signal int

const (
	SignalWait Signal = iota
	SignalBuy
	SignalHold
)

// String method for Signal enum
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalWait:
		return "WAIT"
	case SignalHold:
		return "HOLD"
	default:
		return "UNKNOWN"
	}
}

// ParseSignal converts a stored signal name into a Signal
func ParseSignal(s string) (Signal, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SignalBuy, nil
	case "WAIT":
		return SignalWait, nil
	case "HOLD":
		return SignalHold, nil
	default:
		return SignalWait, fmt.Errorf("invalid signal: %s (expected: BUY, WAIT, or HOLD)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Signal) UnmarshalText(text []byte) error {
	parsed, err := ParseSignal(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Decision merges a procurement plan and its risk assessment into one signal
type Decision struct {
	Material       MaterialName    `json:"material"`
	Country        string          `json:"country"`
	Signal         Signal          `json:"signal"`
	Confidence     float64         `json:"confidence"`
	RiskPct        float64         `json:"risk_pct"`
	BuyQty         decimal.Decimal `json:"buy_qty"`
	CurrentPrice   float64         `json:"current_price"`
	PredictedPrice float64         `json:"predicted_price"`
	Rationale      string          `json:"rationale"`
}

// DecisionRecord is a Decision as handed to the persistence collaborator
type DecisionRecord struct {
	ID        string    `json:"id"`
	Decision  Decision  `json:"decision"`
	CreatedAt time.Time `json:"created_at"`
}
