// Package kernel holds value objects shared across the order domain.
//
// UUID is the only one today: the identifier assigned to every order at creation.
// Its zero value is invalid; build one with NewUUID or UUIDFromString.
package kernel
