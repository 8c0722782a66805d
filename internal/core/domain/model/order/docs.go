// Package order provides the Order aggregate and its status state machine.
//
// The lifecycle is strictly forward:
//
//	Pending ──> Processing ──┬──> Completed
//	                         └──> Failed
//
// Completed and Failed are terminal. Every status change goes through
// Order.TransitionTo, which enforces the machine and refreshes UpdatedAt so that
// UpdatedAt never falls behind CreatedAt or a previous UpdatedAt.
//
// Key business rules:
//   - item name holds between 1 and 100 characters
//   - quantity lies between 1 and 1000
//   - item name and quantity are fixed at creation
package order
