// Package cachekey — канонические ключи кэша и шаблоны их инвалидации.
package cachekey

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Generate — ключ вида prefix:JSON(params) без nil-значений, включая типизированные nil.
// encoding/json сортирует ключи map, поэтому порядок параметров на ключ не влияет.
// Параметры, которые не кодируются в JSON, дают ошибку: общий ключ для разных запросов недопустим.
func Generate(prefix string, params map[string]any) (string, error) {
	clean := make(map[string]any, len(params))
	for k, v := range params {
		if isNil(v) {
			continue
		}
		clean[k] = v
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("cache key %s: %w", prefix, err)
	}
	return prefix + ":" + string(raw), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// All — шаблон всех ключей с префиксом.
func All(prefix string) string { return EscapeGlob(prefix) + "*" }

// Containing — шаблон ключей с префиксом, в параметрах которых встречается value.
func Containing(prefix, value string) string {
	return EscapeGlob(prefix) + ":*" + EscapeGlob(value) + "*"
}

// EscapeGlob — экранирует метасимволы glob, чтобы значение совпадало буквально.
func EscapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]{}\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
