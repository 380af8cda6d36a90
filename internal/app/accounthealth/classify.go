// Package accounthealth classifies trading account balance into health bands
// and serves the account health snapshot with the local classification applied.
package accounthealth

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/gemral/gem/internal/domain"
)

// Band lower bounds, inclusive.
const (
	HealthyMin = 80.0
	WarningMin = 50.0
	DangerMin  = 10.0
	BurnedMin  = 3.0
)

// NormalizePct maps NaN, infinities and negative values to 0.
func NormalizePct(pct float64) float64 {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
		return 0
	}
	return pct
}

// Classify maps a balance percentage to its health band. Total over all floats.
func Classify(pct float64) domain.HealthStatus {
	pct = NormalizePct(pct)
	switch {
	case pct >= HealthyMin:
		return domain.HealthHealthy
	case pct >= WarningMin:
		return domain.HealthWarning
	case pct >= DangerMin:
		return domain.HealthDanger
	case pct >= BurnedMin:
		return domain.HealthBurned
	default:
		return domain.HealthWiped
	}
}

var bandEdges = []struct {
	min    decimal.Decimal
	status domain.HealthStatus
}{
	{decimal.NewFromFloat(HealthyMin), domain.HealthHealthy},
	{decimal.NewFromFloat(WarningMin), domain.HealthWarning},
	{decimal.NewFromFloat(DangerMin), domain.HealthDanger},
	{decimal.NewFromFloat(BurnedMin), domain.HealthBurned},
}

// ClassifyBalance classifies balance/initial exactly: balance*100 is compared
// with edge*initial, so a ratio just below an edge stays in the lower band.
// initial must be positive.
func ClassifyBalance(balance, initial decimal.Decimal) domain.HealthStatus {
	scaled := balance.Mul(hundred)
	for _, b := range bandEdges {
		if scaled.GreaterThanOrEqual(b.min.Mul(initial)) {
			return b.status
		}
	}
	return domain.HealthWiped
}

// StatusOf classifies a snapshot from its balances when the initial balance
// is known, and from BalancePct otherwise.
func StatusOf(snap domain.HealthSnapshot) domain.HealthStatus {
	if snap.InitialBalance.IsPositive() {
		return ClassifyBalance(snap.Balance, snap.InitialBalance)
	}
	return Classify(snap.BalancePct)
}

// rank returns the position in domain.HealthOrder. Unknown statuses rank as wiped.
func rank(s domain.HealthStatus) int {
	for i, h := range domain.HealthOrder {
		if h == s {
			return i
		}
	}
	return 0
}

// CompareStatus returns -1 if a is worse than b, 1 if better, 0 if equal.
func CompareStatus(a, b domain.HealthStatus) int {
	ra, rb := rank(a), rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// IsCritical reports burned or wiped.
func IsCritical(s domain.HealthStatus) bool {
	return s == domain.HealthBurned || s == domain.HealthWiped
}

// NeedsAttention reports danger or worse.
func NeedsAttention(s domain.HealthStatus) bool {
	return s == domain.HealthDanger || IsCritical(s)
}

// Info is the display metadata of a band.
type Info struct {
	Status domain.HealthStatus `json:"status"`
	Label  string              `json:"label"`
	Icon   string              `json:"icon"`
	Color  string              `json:"color"`
}

var infos = map[domain.HealthStatus]Info{
	domain.HealthHealthy: {domain.HealthHealthy, "Khỏe mạnh", "shield-check", "green"},
	domain.HealthWarning: {domain.HealthWarning, "Cảnh báo", "alert-circle", "yellow"},
	domain.HealthDanger:  {domain.HealthDanger, "Nguy hiểm", "alert-triangle", "orange"},
	domain.HealthBurned:  {domain.HealthBurned, "Cháy tài khoản", "flame", "red"},
	domain.HealthWiped:   {domain.HealthWiped, "Mất trắng", "skull", "gray"},
}

// StatusInfo returns display metadata. Unknown statuses get the wiped entry.
func StatusInfo(s domain.HealthStatus) Info {
	if info, ok := infos[s]; ok {
		return info
	}
	return infos[domain.HealthWiped]
}
