package machineconfig

import (
	"errors"
	"fmt"
)

// ValidationError lists everything wrong with a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid configuration: %d problems, first: %s", len(e.Problems), e.Problems[0])
}

// Validate rejects documents the sync could not act on. Duplicate slot
// numbers are not rejected, they are returned as warnings since each
// duplicate would simply be applied again.
func Validate(machines []MachineConfiguration) (warnings []string, err error) {
	var problems []string
	for mi, m := range machines {
		name := m.MachineName
		if name == "" {
			name = fmt.Sprintf("machines[%d]", mi)
		}
		if m.MachineName == "" {
			problems = append(problems, fmt.Sprintf("%s: machineName is required", name))
		}
		if m.MachineGrouping == "" {
			problems = append(problems, fmt.Sprintf("%s: machineGrouping is required", name))
		}

		seen := map[int]bool{}
		for si, s := range m.Slots {
			where := fmt.Sprintf("%s: slots[%d]", name, si)
			if s.SlotNumber <= 0 {
				problems = append(problems, fmt.Sprintf("%s: slotNumber must be positive, got %d", where, s.SlotNumber))
			}
			if s.MachinePrice < 0 || s.UserDefinedPrice < 0 {
				problems = append(problems, fmt.Sprintf("%s: prices must not be negative", where))
			}
			if s.Capacity < 0 || s.Existing < 0 {
				problems = append(problems, fmt.Sprintf("%s: capacity and existing must not be negative", where))
			}
			if seen[s.SlotNumber] {
				warnings = append(warnings, fmt.Sprintf("%s: slot %d appears more than once", name, s.SlotNumber))
			}
			seen[s.SlotNumber] = true
		}
	}

	if len(problems) > 0 {
		return warnings, &ValidationError{Problems: problems}
	}
	return warnings, nil
}

// IsValidationError reports if err came from Validate.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
