package models

// All lists every persisted model, used by sqlite AutoMigrate in local mode
// and tests. Postgres schemas come from goose migrations.
func All() []any {
	return []any{
		&User{},
		&Listing{},
		&Bid{},
		&Transaction{},
		&DeliveryAddress{},
		&OutboxEvent{},
	}
}
