package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE pattern matching text anywhere in a column.
// Use it together with ESCAPE '\'.
func ContainsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
