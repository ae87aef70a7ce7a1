// Package gpio owns the daemon's hardware output lines.
//
// The Table is built once at startup from the bindings file: every GPIO
// binding opens its chip and requests its pin as an output line, and any
// failure there is fatal — the daemon refuses to run partially initialised.
// After startup the only operations are Set, which writes 0/1 to every line
// whose link identifier joins the given one, and Close, which releases lines
// and chips in reverse acquisition order at shutdown.
//
// Hardware access goes through the Provider/Chip/Line interfaces. CharDev is
// the production implementation backed by the Linux GPIO character device
// (/dev/gpiochipN); tests substitute fakes.
//
// A write failure on a line is logged and skipped: external input is
// unreliable by nature and a failing pin must not take down the event loop.
package gpio
