package cache

import (
	"fmt"
	"strings"
)

// GenerateKey joins a namespace and id parts with ':'.
func GenerateKey(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

// BuildPattern creates a Redis glob for keys under prefix.
func BuildPattern(prefix string) string {
	return escapeGlob(prefix) + "*"
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
