// Package agent implements the client half of the heartbeat contract.
//
// A launched shell proxy embeds a Reporter: it reads the TERMHIVE_*
// environment injected by the launcher, posts a heartbeat every 30
// seconds, and announces voluntary shutdown with the terminated status
// so the server removes the record immediately.
package agent
