package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	"github.com/smallbiznis/marketfee/internal/period"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	"gorm.io/gorm"
)

// line is an unpersisted bill line.
type line struct {
	description string
	amountCents int64
	taxPercent  int
}

// billInterval prices [start, end) for a vendor: whole calendar months
// first, then a residual tail. Each sub-interval is partitioned at
// tariff changes and offset by at most one discount use.
func (s *Service) billInterval(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, start, end time.Time) ([]line, error) {
	if end.Before(start) {
		return nil, billingdomain.ErrInvalidPeriod
	}

	months, restDays := period.MonthSpan(start, end)

	var lines []line
	for m := 0; m < months; m++ {
		subLines, err := s.billSubInterval(ctx, tx, vendorID,
			period.AddMonths(start, m), period.AddMonths(start, m+1))
		if err != nil {
			return nil, err
		}
		lines = append(lines, subLines...)
	}

	// A leftover of a single day or less is not charged at all.
	if restDays > 1 {
		subLines, err := s.billSubInterval(ctx, tx, vendorID, period.AddMonths(start, months), end)
		if err != nil {
			return nil, err
		}
		lines = append(lines, subLines...)
	}

	var total int64
	for _, l := range lines {
		total += l.amountCents
	}
	if total < 0 {
		// Discounts may overshoot a cheap month; the bill itself never
		// goes negative.
		lines = append(lines, line{
			description: "Rounding price to zero",
			amountCents: -total,
		})
	}
	return lines, nil
}

// billSubInterval emits one line per tariff-stable partition of
// [subStart, subEnd), then applies the vendor's best discount to the
// sub-interval total.
func (s *Service) billSubInterval(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, subStart, subEnd time.Time) ([]line, error) {
	parts, err := s.partition(ctx, tx, vendorID, subStart, subEnd)
	if err != nil {
		return nil, err
	}

	var lines []line
	var total int64
	for _, p := range parts {
		days := period.DaysBetween(p.start, p.end)
		if days < 1 {
			continue
		}
		amount := p.tariff.TotalDays(days)
		lines = append(lines, line{
			description: usageLine(p.tariff, p.start, p.end),
			amountCents: amount,
			taxPercent:  s.billingCfg.TaxPercent,
		})
		total += amount
	}

	applied, err := s.discounts.CutThePrice(ctx, tx, vendorID, total)
	if err != nil {
		return nil, err
	}
	if applied != nil {
		lines = append(lines, line{
			description: applied.Name,
			amountCents: applied.AmountCents,
			taxPercent:  applied.TaxPercent,
		})
	}
	return lines, nil
}

type partitionSpan struct {
	start  time.Time
	end    time.Time
	tariff tariffdomain.Tariff
}

// partition splits [subStart, subEnd) into tariff-stable spans. The
// snapshot in effect at subStart opens the first span; every snapshot
// inside that pins a different tariff opens a new one. Changes landing
// on the same calendar day as the previous boundary are coalesced into
// that boundary, so two changes on one day never produce a zero-day
// span.
func (s *Service) partition(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, subStart, subEnd time.Time) ([]partitionSpan, error) {
	// Boundaries are calendar dates while snapshots carry full
	// timestamps, so anything recorded on the boundary day is already in
	// effect for that day.
	prime, err := s.snapshots.EffectiveAt(ctx, tx, vendorID, period.EndOfDay(subStart))
	if err != nil {
		return nil, err
	}
	if prime == nil {
		return nil, fmt.Errorf("vendor %s at %s: %w", vendorID, subStart.Format("2006-01-02"), usagedomain.ErrNoSnapshot)
	}

	inside, err := s.snapshots.Within(ctx, tx, vendorID, subStart, subEnd)
	if err != nil {
		return nil, err
	}

	type boundary struct {
		at     time.Time
		tariff tariffdomain.Tariff
	}
	boundaries := []boundary{{at: subStart, tariff: prime.Tariff}}
	for _, snap := range inside {
		last := &boundaries[len(boundaries)-1]
		if snap.TariffID == last.tariff.ID {
			continue
		}
		if period.SameDay(snap.CreatedAt, last.at) {
			last.tariff = snap.Tariff
			// Replacing may make the boundary redundant against the
			// previous span.
			if len(boundaries) > 1 && boundaries[len(boundaries)-2].tariff.ID == last.tariff.ID {
				boundaries = boundaries[:len(boundaries)-1]
			}
			continue
		}
		boundaries = append(boundaries, boundary{at: snap.CreatedAt, tariff: snap.Tariff})
	}

	spans := make([]partitionSpan, 0, len(boundaries))
	for i, b := range boundaries {
		spanEnd := subEnd
		if i+1 < len(boundaries) {
			spanEnd = boundaries[i+1].at
		}
		spans = append(spans, partitionSpan{start: b.at, end: spanEnd, tariff: b.tariff})
	}
	return spans, nil
}

func usageLine(tier tariffdomain.Tariff, start, end time.Time) string {
	return fmt.Sprintf("%s used from %s until %s",
		tier.Name, start.Format("02.01.2006"), end.Format("02.01.2006"))
}
