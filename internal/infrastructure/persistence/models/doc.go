// Package models contains GORM persistence models for the funnels,
// funnel_stages and reports tables. Domain types in internal/domain/funnel
// carry no ORM tags; the ToDomain/FromDomain mappers here convert between
// the two.
package models
