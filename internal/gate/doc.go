// Package gate provides the counting semaphore that enforces the per-document
// ceiling on concurrent external calls.
package gate
