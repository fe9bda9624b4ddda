package enums

import "fmt"

// ReturnReason is the customer-declared cause for a return.
type ReturnReason string

const (
	ReturnReasonDamaged        ReturnReason = "DAMAGED_PRODUCT"
	ReturnReasonWrongItem      ReturnReason = "WRONG_ITEM"
	ReturnReasonMissingParts   ReturnReason = "MISSING_PARTS"
	ReturnReasonDefective      ReturnReason = "DEFECTIVE"
	ReturnReasonNotAsDescribed ReturnReason = "NOT_AS_DESCRIBED"
	ReturnReasonSizeIssue      ReturnReason = "SIZE_ISSUE"
	ReturnReasonOther          ReturnReason = "OTHER"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonDamaged,
	ReturnReasonWrongItem,
	ReturnReasonMissingParts,
	ReturnReasonDefective,
	ReturnReasonNotAsDescribed,
	ReturnReasonSizeIssue,
	ReturnReasonOther,
}

// IsValid reports whether the value is a known ReturnReason.
func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnReason converts raw input into a ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}
