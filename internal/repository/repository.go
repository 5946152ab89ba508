// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to persist and fetch data,
// keeping SQL away from the service layer.
package repository
