// Package main hosts the flowboard CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into store
// mutations, stage advances, and audit queries. It centralizes configuration
// resolution, store locking, and acting-user resolution so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
