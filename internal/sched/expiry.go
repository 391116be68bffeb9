package sched

import (
	"fmt"
	"math"
	"sort"
	"time"

	"glowd/internal/alerts"

	logx "glowd/pkg/logx"
)

// Expiry warning offsets: one early heads-up and one final warning, both
// posted at 09:00 local time on the warning day.
const (
	expiryFirstWarningDays = 7
	expiryFinalWarningDays = 1
	expiryWarningHour      = 9
)

// ExpiryCandidates turns active shelf items into one-shot candidates: up to
// two per item, 7 days and 1 day before expiry, each only if that many days
// still remain at generation time. Items already past expiry, items without
// usable expiry information, and warning instants not strictly in the future
// produce nothing.
//
// The result is sorted soonest-first; that order is the urgency key the
// admission controller truncates on.
func ExpiryCandidates(items []ShelfItem, now time.Time, log logx.Logger) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		if it.Status != ShelfStatusActive {
			continue
		}
		expiry, ok := it.EffectiveExpiry()
		if !ok {
			log.Debug("shelf item has no usable expiry; skipping", logx.String("item", it.ID))
			continue
		}

		daysLeft := daysUntil(now, expiry)
		if daysLeft < expiryFinalWarningDays {
			continue
		}

		if daysLeft >= expiryFirstWarningDays {
			if c, ok := expiryCandidate(it, expiry, now, daysLeft, expiryFirstWarningDays); ok {
				out = append(out, c)
			}
		}
		if c, ok := expiryCandidate(it, expiry, now, daysLeft, expiryFinalWarningDays); ok {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Request.Trigger.At.Before(out[j].Request.Trigger.At)
	})
	return out
}

func expiryCandidate(it ShelfItem, expiry, now time.Time, daysLeft, daysBefore int) (Candidate, bool) {
	at := warningInstant(expiry, daysBefore)
	if !at.After(now) {
		// A same-day warning whose 09:00 slot already passed.
		return Candidate{}, false
	}

	title := "Product expiring soon"
	if daysBefore == expiryFinalWarningDays {
		title = "Product expires tomorrow"
	}
	return Candidate{
		Producer:  ProducerExpiry,
		SubjectID: it.ID,
		Urgency:   daysLeft,
		Request: alerts.Request{
			Title: title,
			Body:  fmt.Sprintf("%s expires on %s.", it.Name, expiry.Format("Jan 2")),
			Data: alerts.Payload{
				Type:      PayloadExpiryReminder,
				SubjectID: it.ID,
			},
			Trigger: alerts.Trigger{Kind: alerts.TriggerOnce, At: at},
		},
	}, true
}

// warningInstant is 09:00 on the day daysBefore days ahead of expiry, in the
// expiry's location.
func warningInstant(expiry time.Time, daysBefore int) time.Time {
	d := expiry.AddDate(0, 0, -daysBefore)
	return time.Date(d.Year(), d.Month(), d.Day(), expiryWarningHour, 0, 0, 0, d.Location())
}

// daysUntil counts calendar days from now's date to t's date in t's location.
// Today is 0, tomorrow is 1; negative means already past.
func daysUntil(now, t time.Time) int {
	ny, nm, nd := now.In(t.Location()).Date()
	a := time.Date(ny, nm, nd, 0, 0, 0, 0, t.Location())
	ty, tm, td := t.Date()
	b := time.Date(ty, tm, td, 0, 0, 0, 0, t.Location())
	return int(math.Round(b.Sub(a).Hours() / 24))
}
