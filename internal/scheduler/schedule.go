package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultInterval = 2 * time.Hour

type cronConfig struct {
	spec     string
	schedule *cronSchedule
}

// parseSchedule 接受 Go duration 或五段 cron 表达式，均无效时回退到默认间隔。
func parseSchedule(value string) (time.Duration, cronConfig, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultInterval, cronConfig{}, nil
	}
	if d, err := time.ParseDuration(trimmed); err == nil {
		if d <= 0 {
			return defaultInterval, cronConfig{}, fmt.Errorf("interval must be positive: %s", trimmed)
		}
		return d, cronConfig{}, nil
	}
	schedule, err := parseCronSpec(trimmed)
	if err != nil {
		return defaultInterval, cronConfig{}, fmt.Errorf("parse schedule %q: %w", trimmed, err)
	}
	return 0, cronConfig{spec: trimmed, schedule: schedule}, nil
}

type cronSchedule struct {
	minutes map[int]struct{}
	hours   map[int]struct{}
	doms    map[int]struct{}
	months  map[int]struct{}
	dows    map[int]struct{}
}

func parseCronSpec(spec string) (*cronSchedule, error) {
	parts := strings.Fields(spec)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron spec must have 5 fields")
	}

	fields := []struct {
		name     string
		min, max int
	}{
		{name: "minutes", min: 0, max: 59},
		{name: "hours", min: 0, max: 23},
		{name: "day-of-month", min: 1, max: 31},
		{name: "month", min: 1, max: 12},
		{name: "day-of-week", min: 0, max: 6},
	}
	c := &cronSchedule{}
	targets := []*map[int]struct{}{&c.minutes, &c.hours, &c.doms, &c.months, &c.dows}
	for i, f := range fields {
		values, err := parseCronField(parts[i], f.min, f.max)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*targets[i] = values
	}
	return c, nil
}

// parseCronField 支持 *、*/n、a-b、a-b/n 与逗号列表。
func parseCronField(expr string, min, max int) (map[int]struct{}, error) {
	result := make(map[int]struct{})
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty field")
	}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		rangePart, step := part, 1
		if idx := strings.Index(part, "/"); idx >= 0 {
			n, err := strconv.Atoi(part[idx+1:])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid step %s", part)
			}
			rangePart, step = part[:idx], n
		}

		lo, hi := min, max
		switch {
		case rangePart == "*":
		case strings.Contains(rangePart, "-"):
			bounds := strings.SplitN(rangePart, "-", 2)
			a, errA := strconv.Atoi(bounds[0])
			b, errB := strconv.Atoi(bounds[1])
			if errA != nil || errB != nil || a < min || b > max || a > b {
				return nil, fmt.Errorf("invalid range %s", part)
			}
			lo, hi = a, b
		default:
			v, err := strconv.Atoi(rangePart)
			if err != nil || v < min || v > max {
				return nil, fmt.Errorf("invalid value %s", part)
			}
			if step != 1 {
				return nil, fmt.Errorf("step requires a range %s", part)
			}
			lo, hi = v, v
		}

		for i := lo; i <= hi; i += step {
			result[i] = struct{}{}
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no values parsed")
	}
	return result, nil
}

func (c *cronSchedule) matches(t time.Time) bool {
	checks := []struct {
		set   map[int]struct{}
		value int
	}{
		{c.minutes, t.Minute()},
		{c.hours, t.Hour()},
		{c.doms, t.Day()},
		{c.months, int(t.Month())},
		{c.dows, int(t.Weekday())},
	}
	for _, chk := range checks {
		if _, ok := chk.set[chk.value]; !ok {
			return false
		}
	}
	return true
}

func (c *cronSchedule) next(after time.Time) (time.Time, error) {
	start := after.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 366*24*60; i++ {
		candidate := start.Add(time.Duration(i) * time.Minute)
		if c.matches(candidate) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no matching time found")
}
