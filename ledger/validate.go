package ledger

import (
	"fmt"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/market"
)

// quantityEpsilon absorbs float noise when comparing exited to entered size.
const quantityEpsilon = 1e-9

// Validate checks the account fields the analytics depend on.
func (a Account) Validate() error {
	if a.ID == "" {
		return errs.Validation("id", "is required")
	}
	if !market.IsCurrencyCode(a.BaseCurrency) {
		return errs.Validation("base_currency", "%q is not an ISO 4217 code", a.BaseCurrency)
	}
	if a.InitialCapital <= 0 {
		return errs.Validation("initial_capital", "must be > 0, got %v", a.InitialCapital)
	}
	if _, ok := ParseTradingModel(string(a.TradingModel)); !ok {
		return errs.Validation("trading_model", "unknown model %q", a.TradingModel)
	}
	return nil
}

// Validate checks fills, the exit/entry quantity invariant, and that the
// status agrees with the fills.
func (t Trade) Validate() error {
	if t.Type != Long && t.Type != Short {
		return errs.Validation("trade_type", "must be Long or Short, got %q", t.Type)
	}
	if err := validateFills("entries", t.Entries); err != nil {
		return err
	}
	if err := validateFills("exits", t.Exits); err != nil {
		return err
	}
	for i, c := range t.Costs {
		if c.Amount < 0 {
			return errs.Validation(fmt.Sprintf("costs[%d].amount", i), "must be >= 0, got %v", c.Amount)
		}
	}
	if t.StopLoss != nil && *t.StopLoss <= 0 {
		return errs.Validation("stop_loss_price", "must be > 0, got %v", *t.StopLoss)
	}
	if t.TakeProfit != nil && *t.TakeProfit <= 0 {
		return errs.Validation("take_profit_price", "must be > 0, got %v", *t.TakeProfit)
	}

	entered, exited := t.EnteredQuantity(), t.ExitedQuantity()
	if exited > entered+quantityEpsilon {
		return errs.Validation("exits", "exited quantity %v exceeds entered %v", exited, entered)
	}

	switch t.Status {
	case StatusOpen:
		if len(t.Entries) > 0 && entered-exited <= quantityEpsilon {
			return errs.Validation("status", "fully exited trade must be Closed")
		}
	case StatusClosed:
		if len(t.Entries) == 0 || entered-exited > quantityEpsilon {
			return errs.Validation("status", "Closed trade must be fully exited (entered %v, exited %v)", entered, exited)
		}
	case StatusCancelled:
		// Only an unexecuted order can be cancelled.
		if len(t.Exits) > 0 {
			return errs.Validation("status", "Cancelled trade cannot have exits")
		}
		if len(t.Entries) > 0 {
			return errs.Validation("status", "Cancelled trade cannot have entries")
		}
	default:
		return errs.Validation("status", "unknown status %q", t.Status)
	}
	return nil
}

func validateFills(field string, fills []Fill) error {
	for i, f := range fills {
		if f.Price <= 0 {
			return errs.Validation(fmt.Sprintf("%s[%d].price", field, i), "must be > 0, got %v", f.Price)
		}
		if f.Quantity <= 0 {
			return errs.Validation(fmt.Sprintf("%s[%d].quantity", field, i), "must be > 0, got %v", f.Quantity)
		}
		if f.Commission < 0 {
			return errs.Validation(fmt.Sprintf("%s[%d].commission", field, i), "must be >= 0, got %v", f.Commission)
		}
	}
	return nil
}
