package ledger

import "time"

func ptr(v float64) *float64 { return &v }

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func sampleAccount(id string) Account {
	return Account{
		ID:             id,
		Name:           "Main " + id,
		Broker:         "OANDA",
		BaseCurrency:   "USD",
		InitialCapital: 10000,
		MaxDrawdown:    ptr(10),
		TradingModel:   MediumRisk,
		CreatedAt:      day(1),
	}
}

func closedLong(id, account string) Trade {
	return Trade{
		ID:         id,
		AccountID:  account,
		Instrument: "AAPL",
		Type:       Long,
		Status:     StatusClosed,
		Entries: []Fill{
			{Date: day(2), Price: 100, Quantity: 5, Commission: 1},
			{Date: day(3), Price: 110, Quantity: 5},
		},
		Exits: []Fill{
			{Date: day(5), Price: 120, Quantity: 10, Reason: "target"},
		},
		StopLoss:  ptr(95),
		RiskType:  "Swing",
		Costs:     []Cost{{Type: "Spread", Amount: 2.5}},
		CreatedAt: day(2),
	}
}
