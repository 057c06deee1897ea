// Package analysis computes exam result analyses for one class: per-student
// aggregates, grades, subject and class/stream ranks, grade distributions,
// subject performance tables and historical trend series.
//
// Everything in this package is pure. Callers fetch the raw rows and the
// catalog data, and hand them over fully resolved; the default grading
// system is injected at construction time.
package analysis
