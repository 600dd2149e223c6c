package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type kv struct {
	key   string
	value slog.Value
}

// flattenAttrs appends attrs under the dotted group path, expanding nested
// groups (credits.director=...).
func flattenAttrs(dst *[]kv, groups []string, attrs []slog.Attr) {
	prefix := strings.Join(groups, ".")
	for _, attr := range attrs {
		flattenInto(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, groups []string, attr slog.Attr) {
	flattenInto(dst, strings.Join(groups, "."), attr)
}

func flattenInto(dst *[]kv, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := dotted(prefix, attr.Key)
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		*dst = append(*dst, kv{key: key, value: value})
		return
	}
	for _, member := range value.Group() {
		flattenInto(dst, key, member)
	}
}

func dotted(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// plainValue renders v for display without quoting.
func plainValue(v slog.Value) string {
	switch v = v.Resolve(); v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// consoleValue is plainValue quoted when it would not survive key=value
// splitting.
func consoleValue(v slog.Value) string {
	s := plainValue(v)
	if s == "" {
		return `""`
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
