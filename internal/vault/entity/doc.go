// Package entity holds the vault domain types shared by the usecase and the
// store implementations.
package entity
