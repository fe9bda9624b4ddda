package enums

import "fmt"

// QCStatus is the outcome of a warehouse quality check.
type QCStatus string

const (
	QCStatusPassed QCStatus = "PASSED"
	QCStatusFailed QCStatus = "FAILED"
)

var validQCStatuses = []QCStatus{
	QCStatusPassed,
	QCStatusFailed,
}

// IsValid reports whether the value is a known QCStatus.
func (q QCStatus) IsValid() bool {
	for _, candidate := range validQCStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQCStatus converts raw input into a QCStatus.
func ParseQCStatus(value string) (QCStatus, error) {
	for _, candidate := range validQCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid qc status %q", value)
}

// QCChecklistVariant selects which inspection rules derive the QC outcome.
type QCChecklistVariant string

const (
	QCChecklistVariantBoxIntegrity QCChecklistVariant = "BOX_INTEGRITY"
	QCChecklistVariantCondition    QCChecklistVariant = "CONDITION"
)

var validQCChecklistVariants = []QCChecklistVariant{
	QCChecklistVariantBoxIntegrity,
	QCChecklistVariantCondition,
}

// IsValid reports whether the value is a known QCChecklistVariant.
func (q QCChecklistVariant) IsValid() bool {
	for _, candidate := range validQCChecklistVariants {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQCChecklistVariant converts raw input into a QCChecklistVariant.
func ParseQCChecklistVariant(value string) (QCChecklistVariant, error) {
	for _, candidate := range validQCChecklistVariants {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid qc checklist variant %q", value)
}
