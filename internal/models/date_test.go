package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC))

	b, err := json.Marshal(d)
	assert.NoError(t, err)
	assert.Equal(t, `"2026-08-31"`, string(b))

	var parsed Date
	assert.NoError(t, json.Unmarshal(b, &parsed))
	assert.Equal(t, d, parsed)

	assert.Error(t, json.Unmarshal([]byte(`"31/08/2026"`), &parsed))
}

func TestNewDateTruncatesToDay(t *testing.T) {
	d := NewDate(time.Date(2026, time.March, 5, 17, 30, 12, 99, time.FixedZone("X", 3600)))
	assert.Equal(t, "2026-03-05", d.String())
}

func TestAccountClone(t *testing.T) {
	a := Account{
		Username:       "alice",
		Transactions:   []Transaction{{ID: 1, Kind: KindDeposit}},
		Loans:          []Loan{{ID: "l1"}},
		SettledPeriods: map[string]bool{"2026-08": true},
	}
	cp := a.Clone()
	cp.Transactions[0].ID = 99
	cp.Loans[0].ID = "other"
	cp.SettledPeriods["2026-09"] = true

	assert.Equal(t, int64(1), a.Transactions[0].ID)
	assert.Equal(t, "l1", a.Loans[0].ID)
	assert.False(t, a.SettledPeriods["2026-09"])
}
