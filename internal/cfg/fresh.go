package cfg

import "fmt"

// FreshName returns the first name `prefix0`, `prefix1`, ... for which
// taken reports false. Used for block names here and reused by the
// induction-variable pass for fresh variable names (spec §4.1, §4.8).
func FreshName(prefix string, taken func(string) bool) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if !taken(name) {
			return name
		}
	}
}
