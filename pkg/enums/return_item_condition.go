package enums

import "fmt"

// ReturnItemCondition describes the declared state of a returned unit.
type ReturnItemCondition string

const (
	ReturnItemConditionUnopened ReturnItemCondition = "UNOPENED"
	ReturnItemConditionOpened   ReturnItemCondition = "OPENED"
	ReturnItemConditionUsed     ReturnItemCondition = "USED"
	ReturnItemConditionDamaged  ReturnItemCondition = "DAMAGED"
)

var validReturnItemConditions = []ReturnItemCondition{
	ReturnItemConditionUnopened,
	ReturnItemConditionOpened,
	ReturnItemConditionUsed,
	ReturnItemConditionDamaged,
}

// IsValid reports whether the value is a known ReturnItemCondition.
func (r ReturnItemCondition) IsValid() bool {
	for _, candidate := range validReturnItemConditions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnItemCondition converts raw input into a ReturnItemCondition.
func ParseReturnItemCondition(value string) (ReturnItemCondition, error) {
	for _, candidate := range validReturnItemConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return item condition %q", value)
}
