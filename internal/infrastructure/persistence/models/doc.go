// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - identity.go: users
//   - training.go: companies, programmes, training sessions
//   - finance.go: invoices, counters, payments, payables, expenses, audit log
package models
