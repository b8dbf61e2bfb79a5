// Package clockx abstracts time for code that schedules work.
//
// Package: clockx
// Title: Injectable Clock
// Description: Production code takes a Clock instead of calling the time package
//              directly, so rate-limit windows, flush tickers and retry back-off
//              can be driven deterministically from tests with a FakeClock.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with real and fake clocks
//
// Usage:
//
//	clk := clockx.Fake(time.Unix(0, 0))
//	go func() { <-clk.After(5 * time.Second) }()
//	clk.WaitForTimers(1)
//	clk.Advance(5 * time.Second)
package clockx
