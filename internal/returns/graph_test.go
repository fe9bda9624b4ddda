package returns

import (
	"testing"

	"github.com/risbow/risbow-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to enums.ReturnStatus
		want     bool
	}{
		{enums.ReturnStatusPendingApproval, enums.ReturnStatusApproved, true},
		{enums.ReturnStatusPendingApproval, enums.ReturnStatusRejected, true},
		{enums.ReturnStatusPendingApproval, enums.ReturnStatusQCPassed, false},
		{enums.ReturnStatusApproved, enums.ReturnStatusQCFailed, true},
		{enums.ReturnStatusApproved, enums.ReturnStatusPendingApproval, false},
		{enums.ReturnStatusQCFailed, enums.ReturnStatusReplacementShipped, false},
		{enums.ReturnStatusRefundInitiated, enums.ReturnStatusRefundCompleted, true},
		{enums.ReturnStatusRejected, enums.ReturnStatusApproved, false},
		{enums.ReturnStatusReplacementShipped, enums.ReturnStatusRefundCompleted, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []enums.ReturnStatus{enums.ReturnStatusRejected, enums.ReturnStatusReplacementShipped} {
		if !IsTerminal(status) {
			t.Fatalf("%s should be terminal", status)
		}
		if next := AllowedNext(status); next != nil {
			t.Fatalf("%s should have no successors, got %v", status, next)
		}
	}
	if IsTerminal(enums.ReturnStatusApproved) {
		t.Fatalf("APPROVED should not be terminal")
	}

	next := AllowedNext(enums.ReturnStatusPendingApproval)
	next[0] = enums.ReturnStatusRefundCompleted
	if !CanTransition(enums.ReturnStatusPendingApproval, enums.ReturnStatusApproved) {
		t.Fatalf("AllowedNext must return a copy")
	}
}

func TestEvaluateQC(t *testing.T) {
	tests := []struct {
		name  string
		input QCInput
		want  enums.QCStatus
	}{
		{"box intact", QCInput{Variant: enums.QCChecklistVariantBoxIntegrity, IsBrandBoxIntact: true, IsProductIntact: true}, enums.QCStatusPassed},
		{"box torn", QCInput{Variant: enums.QCChecklistVariantBoxIntegrity, IsProductIntact: true}, enums.QCStatusFailed},
		{"product broken", QCInput{Variant: enums.QCChecklistVariantBoxIntegrity, IsBrandBoxIntact: true}, enums.QCStatusFailed},
		{"clean condition", QCInput{Variant: enums.QCChecklistVariantCondition, IsUnused: true, AllAccessoriesPresent: true}, enums.QCStatusPassed},
		{"damaged", QCInput{Variant: enums.QCChecklistVariantCondition, IsUnused: true, AllAccessoriesPresent: true, HasPhysicalDamage: true}, enums.QCStatusFailed},
		{"used", QCInput{Variant: enums.QCChecklistVariantCondition, AllAccessoriesPresent: true}, enums.QCStatusFailed},
		{"missing charger", QCInput{Variant: enums.QCChecklistVariantCondition, IsUnused: true, AllAccessoriesPresent: true, MissingAccessories: []string{"charger"}}, enums.QCStatusFailed},
		{"accessories flag off", QCInput{Variant: enums.QCChecklistVariantCondition, IsUnused: true}, enums.QCStatusFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateQC(tc.input); got != tc.want {
				t.Fatalf("expected %s got %s", tc.want, got)
			}
		})
	}
}
