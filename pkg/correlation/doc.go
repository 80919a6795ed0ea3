// Package correlation hands responses from queue workers back to callers
// waiting in the same process.
//
// A caller registers a job identifier before enqueueing the job and then
// waits on the returned Waiter. The worker which executes the job calls
// Resolve with the response. The entry is removed before delivery, so a
// second Resolve for the same identifier returns ErrMissingSender. A caller
// which stops waiting leaves its entry in place, and the eventual Resolve
// removes it and returns ErrMissingReceiver.
//
// The table is held in memory only and does not survive a restart.
package correlation
