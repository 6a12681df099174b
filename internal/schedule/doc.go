// Package schedule defines the schedule variants a chime can carry and
// computes next-fire instants for them.
//
// Each variant validates its own parameters and knows how to produce the
// next occurrence strictly after a reference instant. Calendar variants
// (daily, weekly, monthly, cron) evaluate in an IANA timezone and return
// UTC; interval and once variants are timezone-insensitive.
package schedule
