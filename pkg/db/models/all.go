package models

// All lists every persisted model, in dependency order, for AutoMigrate in
// tests and the sqlite dev mode.
func All() []any {
	return []any{
		&Vendor{},
		&Product{},
		&ProductVariant{},
		&Order{},
		&ReturnRequest{},
		&ReturnItem{},
		&ReturnTimeline{},
		&ReplacementOrder{},
		&OrderPackingProof{},
		&ReturnQCChecklist{},
		&Refund{},
		&AuditLog{},
		&Notification{},
		&OutboxEvent{},
	}
}
