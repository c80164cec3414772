package geocoding

import "strings"

var addressPunctuation = strings.NewReplacer("(", " ", ")", " ", ",", " ", ".", " ", "-", " ")

// NormalizeAddress replaces ( ) , . - with spaces and collapses whitespace so
// equivalent spellings share one cache key.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(addressPunctuation.Replace(s)), " ")
}
