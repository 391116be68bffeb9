package sched

import (
	"fmt"
	"strconv"
	"strings"

	"glowd/internal/alerts"

	logx "glowd/pkg/logx"
)

// Default reminder times per segment. These are product constants, not
// configuration; only the settings-level overrides may change them per user.
var defaultSegmentTime = map[Segment]string{
	SegmentMorning:   "07:30",
	SegmentAfternoon: "15:00",
	SegmentEvening:   "19:30",
}

// RoutineCandidates turns active routines into recurring candidates: one per
// routine per active weekday, at the routine's override time, the settings
// time for its segment, or the built-in default, in that order.
//
// Disabled routines and routines without active days produce nothing. A
// routine with an unparseable time or unknown segment is skipped on its own;
// generation continues for the rest.
func RoutineCandidates(routines []Routine, st Settings, log logx.Logger) []Candidate {
	out := make([]Candidate, 0, len(routines))
	for _, rt := range routines {
		if !rt.Enabled || rt.Days.Count() == 0 {
			continue
		}

		raw := strings.TrimSpace(rt.ReminderTime)
		if raw == "" {
			raw = strings.TrimSpace(st.SegmentTime(rt.Segment))
		}
		if raw == "" {
			raw = defaultSegmentTime[rt.Segment]
		}
		if raw == "" {
			log.Warn("routine has unknown segment; skipping",
				logx.String("routine", rt.ID),
				logx.String("segment", string(rt.Segment)))
			continue
		}

		hour, minute, err := parseHHMM(raw)
		if err != nil {
			log.Warn("routine has invalid reminder time; skipping",
				logx.String("routine", rt.ID),
				logx.String("time", raw),
				logx.Err(err))
			continue
		}

		for day := 0; day < 7; day++ {
			if !rt.Days[day] {
				continue
			}
			out = append(out, Candidate{
				Producer:  ProducerRoutine,
				SubjectID: rt.ID,
				Request: alerts.Request{
					Title: fmt.Sprintf("Time for %s", rt.Name),
					Body:  fmt.Sprintf("Your %s routine is waiting.", rt.Segment),
					Data: alerts.Payload{
						Type:      PayloadRoutineReminder,
						SubjectID: rt.ID,
						Segment:   string(rt.Segment),
					},
					Trigger: alerts.Trigger{
						Kind:    alerts.TriggerWeekly,
						Weekday: day,
						Hour:    hour,
						Minute:  minute,
					},
				},
			})
		}
	}
	return out
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
