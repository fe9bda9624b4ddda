package enums

import "fmt"

// ReturnStatus tracks a replacement-only return request.
type ReturnStatus string

const (
	ReturnStatusPendingApproval     ReturnStatus = "PENDING_APPROVAL"
	ReturnStatusApproved            ReturnStatus = "APPROVED"
	ReturnStatusRejected            ReturnStatus = "REJECTED"
	ReturnStatusQCPassed            ReturnStatus = "QC_PASSED"
	ReturnStatusQCFailed            ReturnStatus = "QC_FAILED"
	ReturnStatusReceivedAtWarehouse ReturnStatus = "RECEIVED_AT_WAREHOUSE"
	ReturnStatusRefundInitiated     ReturnStatus = "REFUND_INITIATED"
	ReturnStatusRefundCompleted     ReturnStatus = "REFUND_COMPLETED"
	ReturnStatusReplacementShipped  ReturnStatus = "REPLACEMENT_SHIPPED"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPendingApproval,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusQCPassed,
	ReturnStatusQCFailed,
	ReturnStatusReceivedAtWarehouse,
	ReturnStatusRefundInitiated,
	ReturnStatusRefundCompleted,
	ReturnStatusReplacementShipped,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
