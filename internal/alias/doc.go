// Package alias keeps alternate title lists and credit name lists free of
// case-insensitive duplicates.
package alias
