// Package population runs peak detection over every cell of a recording and
// reduces the per-cell features to population statistics.
package population
