// Package libruntime loads third-party component libraries on demand and
// feeds their components into a registry.Registry.
//
// Each library moves through idle, loading and then success or error. At most
// one load per library is in flight: concurrent Ensure calls for the same id
// attach to the running attempt. Failures never escape as Go errors; they are
// reported as Diagnostics on the library state.
package libruntime
