// Package cache provides a generic LRU used to memoize fitness scores.
//
// Entries may be accounted against a resource.Controller memory budget: when
// the controller refuses the reservation the value is simply not cached.
package cache
