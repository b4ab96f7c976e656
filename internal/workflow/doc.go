// Package workflow orchestrates the atomic advance-or-finalize operation on a
// task. The engine resolves the channel and column context, runs the
// mandatory-field guard, and delegates the combined mutation plus audit
// append to the store, so a rejection never leaves a partial change and a
// success never lacks its stage event.
package workflow
