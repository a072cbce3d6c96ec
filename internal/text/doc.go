// Package text derives display text for library records from catalog data:
// language-aware season titles, sanitized descriptions, and tag casing.
package text
