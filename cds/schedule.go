package cds

import (
	"time"

	"github.com/meenmo/cdslib/calendar"
	"github.com/meenmo/cdslib/errs"
	"github.com/meenmo/cdslib/utils"
)

// ScheduleParams describes a standard CDS coupon and default-node schedule.
type ScheduleParams struct {
	ValuationDate time.Time
	StartDate     time.Time
	MaturityDate  time.Time

	// FrequencyMonths is the coupon period; PayoutFrequencyMonths the spacing of
	// default nodes (zero means the coupon period).
	FrequencyMonths       int
	PayoutFrequencyMonths int
	Calendar              calendar.Calendar
	Convention            calendar.Convention // zero value is Following
	DayCount              string              // coupon accrual basis, default ACT/360

	Notional     float64
	Spread       float64
	RecoveryRate float64
}

// BuildSchedule rolls dates backward from maturity and returns the premium
// and payout schedules that fall on or after the valuation date.
//
// Roll dates other than start and maturity are adjusted with Convention.
// Coupons accrue on DayCount between adjusted dates; the first period starts
// at StartDate and the last ends at the unadjusted maturity. Every payout node pays
// Notional*(1-RecoveryRate).
func BuildSchedule(p ScheduleParams) (premiums, payouts []Payment, err error) {
	const op = "BuildSchedule"
	if p.FrequencyMonths <= 0 {
		return nil, nil, errs.InvalidInput(op, "frequency %d months must be positive", p.FrequencyMonths)
	}
	if !p.MaturityDate.After(p.StartDate) {
		return nil, nil, errs.InvalidInput(op, "maturity %s not after start %s",
			p.MaturityDate.Format(utils.DateLayout), p.StartDate.Format(utils.DateLayout))
	}
	payoutMonths := p.PayoutFrequencyMonths
	if payoutMonths == 0 {
		payoutMonths = p.FrequencyMonths
	}
	if payoutMonths < 0 {
		return nil, nil, errs.InvalidInput(op, "payout frequency %d months must be positive", payoutMonths)
	}
	dayCount := p.DayCount
	switch dayCount {
	case "":
		dayCount = utils.Act360
	case utils.Act360, utils.Act365F, utils.Thirty:
	default:
		return nil, nil, errs.InvalidInput(op, "unsupported day count %q", p.DayCount)
	}

	dates := p.adjusted(rollDates(p.StartDate, p.MaturityDate, p.FrequencyMonths))
	for i := 1; i < len(dates); i++ {
		if dates[i].Before(p.ValuationDate) {
			continue
		}
		accrual := utils.YearFraction(dates[i-1], dates[i], dayCount)
		premiums = append(premiums, Payment{
			Time:   utils.TimeBetween(p.ValuationDate, dates[i]),
			Amount: p.Notional * p.Spread * accrual,
		})
	}

	loss := p.Notional * (1 - p.RecoveryRate)
	nodes := p.adjusted(rollDates(p.StartDate, p.MaturityDate, payoutMonths))
	for _, d := range nodes[1:] {
		if d.Before(p.ValuationDate) {
			continue
		}
		payouts = append(payouts, Payment{Time: utils.TimeBetween(p.ValuationDate, d), Amount: loss})
	}
	return premiums, payouts, nil
}

// adjusted applies the convention to every roll date except the first and last.
func (p ScheduleParams) adjusted(dates []time.Time) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		if i == 0 || i == len(dates)-1 {
			out[i] = d
			continue
		}
		out[i] = p.Calendar.AdjustBy(p.Convention, d)
	}
	return out
}

// rollDates returns start, the roll dates strictly between start and maturity
// obtained by stepping back from maturity, and maturity, in ascending order.
func rollDates(start, maturity time.Time, months int) []time.Time {
	var back []time.Time
	for k := 1; ; k++ {
		d := utils.AddMonth(maturity, -k*months)
		if !d.After(start) {
			break
		}
		back = append(back, d)
	}

	out := make([]time.Time, 0, len(back)+2)
	out = append(out, start)
	for i := len(back) - 1; i >= 0; i-- {
		out = append(out, back[i])
	}
	return append(out, maturity)
}
