package httpapi

import (
	"errors"
	"fmt"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
)

// ErrUnknownFrequency rejects frequency keywords outside the fixed set.
var ErrUnknownFrequency = errors.New("unknown frequency keyword")

// frequencyFlags maps the client's dose keywords onto dose-slot flags.
var frequencyFlags = map[string]func(*domain.DoseSet){
	"기상":   func(d *domain.DoseSet) { d.Morning = true },
	"아침식전": func(d *domain.DoseSet) { d.BreakfastBefore = true },
	"아침식후": func(d *domain.DoseSet) { d.BreakfastAfter = true },
	"점심식전": func(d *domain.DoseSet) { d.LunchBefore = true },
	"점심식후": func(d *domain.DoseSet) { d.LunchAfter = true },
	"저녁식전": func(d *domain.DoseSet) { d.DinnerBefore = true },
	"저녁식후": func(d *domain.DoseSet) { d.DinnerAfter = true },
	"취침전":  func(d *domain.DoseSet) { d.Bedtime = true },
}

// dosesFromFrequency builds a DoseSet from keyword list, rejecting unknowns.
func dosesFromFrequency(freq []string) (domain.DoseSet, error) {
	var doses domain.DoseSet
	for _, f := range freq {
		set, ok := frequencyFlags[f]
		if !ok {
			return domain.DoseSet{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, f)
		}
		set(&doses)
	}
	return doses, nil
}

// frequencyFromDoses renders a DoseSet back into keywords, in slot order.
func frequencyFromDoses(d domain.DoseSet) []string {
	var out []string
	if d.Morning {
		out = append(out, "기상")
	}
	if d.BreakfastBefore {
		out = append(out, "아침식전")
	}
	if d.BreakfastAfter {
		out = append(out, "아침식후")
	}
	if d.LunchBefore {
		out = append(out, "점심식전")
	}
	if d.LunchAfter {
		out = append(out, "점심식후")
	}
	if d.DinnerBefore {
		out = append(out, "저녁식전")
	}
	if d.DinnerAfter {
		out = append(out, "저녁식후")
	}
	if d.Bedtime {
		out = append(out, "취침전")
	}
	return out
}
