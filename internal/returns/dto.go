package returns

import (
	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
)

// CreateItemInput is one product line the customer sends back.
type CreateItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
	Condition enums.ReturnItemCondition
	Reason    *string
}

// CreateInput is the customer's return request against a delivered order.
type CreateInput struct {
	OrderID        uuid.UUID
	Reason         enums.ReturnReason
	Description    *string
	EvidenceImages []string
	EvidenceVideo  *string
	Items          []CreateItemInput
}

// Actor identifies who drives a return transition.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

type UpdateStatusInput struct {
	Status          enums.ReturnStatus
	Notes           *string
	RejectionReason *string
}

type VendorDecisionInput struct {
	VendorID uuid.UUID
	ActorID  uuid.UUID
	Approve  bool
	Reason   string
}

// QCInput carries a warehouse inspection. Variant selects the pass rules.
type QCInput struct {
	VendorID              *uuid.UUID
	Variant               enums.QCChecklistVariant
	IsBrandBoxIntact      bool
	IsProductIntact       bool
	IsOriginalPackaging   bool
	IsUnused              bool
	AllAccessoriesPresent bool
	HasPhysicalDamage     bool
	IMEIMatch             *bool
	MissingAccessories    []string
	Images                []string
	Notes                 *string
}

// Filters narrows FindAll. Nil fields are ignored.
type Filters struct {
	Status   *enums.ReturnStatus
	UserID   *uuid.UUID
	VendorID *uuid.UUID
	OrderID  *uuid.UUID
	Limit    int
	Cursor   string
}

type ListResult struct {
	Items      []models.ReturnRequest `json:"items"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

// QCResult reports the stored checklist and the return it advanced, if any.
type QCResult struct {
	Checklist *models.ReturnQCChecklist `json:"checklist"`
	Return    *models.ReturnRequest     `json:"return,omitempty"`
}
