// Package main hosts the scrawl CLI entrypoint and command graph.
//
// The Cobra-based command tree wires terminal invocations to the extraction
// pipeline: running documents end to end, inspecting persisted runs, probing
// the deterministic pattern scan, and configuration scaffolding. It
// centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
