package returns

import "github.com/risbow/risbow-backend/pkg/enums"

// transitions is the forward-only return pipeline. REJECTED and
// REPLACEMENT_SHIPPED have no successors.
var transitions = map[enums.ReturnStatus][]enums.ReturnStatus{
	enums.ReturnStatusPendingApproval: {
		enums.ReturnStatusApproved,
		enums.ReturnStatusRejected,
	},
	enums.ReturnStatusApproved: {
		enums.ReturnStatusQCPassed,
		enums.ReturnStatusQCFailed,
		enums.ReturnStatusReplacementShipped,
	},
	enums.ReturnStatusQCPassed: {
		enums.ReturnStatusReceivedAtWarehouse,
		enums.ReturnStatusReplacementShipped,
	},
	enums.ReturnStatusQCFailed: {
		enums.ReturnStatusReceivedAtWarehouse,
	},
	enums.ReturnStatusReceivedAtWarehouse: {
		enums.ReturnStatusRefundInitiated,
		enums.ReturnStatusReplacementShipped,
	},
	enums.ReturnStatusRefundInitiated: {
		enums.ReturnStatusRefundCompleted,
		enums.ReturnStatusReplacementShipped,
	},
	enums.ReturnStatusRefundCompleted: {
		enums.ReturnStatusReplacementShipped,
	},
}

// CanTransition reports whether a return may move from one status to the next.
func CanTransition(from, to enums.ReturnStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether status accepts no further moves.
func IsTerminal(status enums.ReturnStatus) bool {
	return len(transitions[status]) == 0
}

// AllowedNext lists the statuses reachable from status in one step.
func AllowedNext(status enums.ReturnStatus) []enums.ReturnStatus {
	next := transitions[status]
	if len(next) == 0 {
		return nil
	}
	out := make([]enums.ReturnStatus, len(next))
	copy(out, next)
	return out
}
