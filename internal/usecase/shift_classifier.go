package usecase

import (
	"strings"

	"roster-service/internal/domain/entity"
	"roster-service/pkg/utils"
)

// shiftKeywords is checked in order; the first type with a matching keyword wins.
// Keywords are compared against the Turkish-folded ASCII form of the cell.
var shiftKeywords = []struct {
	shiftType entity.ShiftType
	keywords  []string
}{
	{entity.ShiftOnCall, []string{"icap", "on-call", "on_call", "on call", "oncall"}},
	{entity.ShiftNight, []string{"gece", "night"}},
	{entity.ShiftWeekend, []string{"hafta sonu", "haftasonu", "weekend"}},
	{entity.ShiftHoliday, []string{"tatil", "bayram", "holiday"}},
	{entity.ShiftDay, []string{"gunduz", "day"}},
}

// ClassifyShiftType maps a free-text shift label to a shift type; unknown or empty labels are normal
func ClassifyShiftType(raw string) entity.ShiftType {
	folded := utils.FoldTurkish(strings.TrimSpace(raw))
	if folded == "" {
		return entity.ShiftNormal
	}
	for _, k := range shiftKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(folded, kw) {
				return k.shiftType
			}
		}
	}
	return entity.ShiftNormal
}
