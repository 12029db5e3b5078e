// Package logging configures the process-wide slog logger: a human-oriented
// console handler for terminals and a JSON handler for machine consumption,
// plus typed attribute helpers and context-derived fields shared by every
// component.
package logging
