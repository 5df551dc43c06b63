// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and the model list used for auto-migration
//   - ledger.go: account types, GL accounts, ledger transactions and records
//   - financial_entity.go: invoices, credit notes and purchase orders with items,
//     status history, approve requests and accounting organizations
//   - approver.go: approver profiles backing the approver directory
//   - payment.go: payments, invoice attachments, card charges, forwarded payments
//
// Mappers convert in both directions: ToDomain on the model and
// XModelFromDomain constructors for writes.
package models
