// Package models contains GORM persistence models for the pricing tables.
// Domain entities carry no ORM tags; each model converts with ToDomain and
// FromDomain.
//
// Structure:
// - base.go: shared id and timestamp columns
// - catalog.go: products and product units
// - partner.go: business parties
// - trade.go: document headers and lines
// - pricelist.go: price lists, entries and business party associations
// - audit.go: audit log
package models
