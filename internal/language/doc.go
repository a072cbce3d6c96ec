// Package language provides unified language code normalization and mapping.
//
// Catalog titles are tagged with ISO 639 codes plus the AniDB pseudo
// languages for romanized text (x-jat, x-zht, x-kot) and x-other. All
// conversions between those forms, display names, and origin countries are
// consolidated here.
package language
