package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// section groups options sharing a dotted prefix; the top level has name "".
type section struct {
	name string
	opts []ConfigOption
}

// splitSections groups opts by their first key segment, keeping order.
func splitSections(opts []ConfigOption) []section {
	out := []section{{name: ""}}
	index := map[string]int{"": 0}
	for _, o := range opts {
		name, key := "", o.Key
		if i := strings.IndexByte(o.Key, '.'); i >= 0 {
			name, key = o.Key[:i], o.Key[i+1:]
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, section{name: name})
		}
		out[i].opts = append(out[i].opts, ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return out
}

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() string {
	lines := []string{"# inkpad configuration (TOML)"}
	for _, s := range splitSections(GetConfigOptions()) {
		if len(s.opts) == 0 {
			continue
		}
		if s.name != "" {
			lines = append(lines, "["+s.name+"]")
		}
		for _, o := range s.opts {
			writeOption(&lines, o)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// UpdateTOML appends missing defaults to an existing TOML string and comments
// out keys no longer in the schema. It reports whether anything changed.
func UpdateTOML(existing string) (string, bool) {
	known := make(map[string]bool)
	for _, o := range GetConfigOptions() {
		known[o.Key] = true
	}

	seen := make(map[string]bool)
	tables := make(map[string]bool)
	current := ""
	firstHeader := -1
	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines))
	changed := false
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if name, ok := sectionHeader(trim); ok {
			if firstHeader < 0 {
				firstHeader = len(out)
			}
			current = name
			tables[name] = true
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(trim)
		if !ok {
			out = append(out, line)
			continue
		}
		full := key
		if current != "" {
			full = current + "." + key
		}
		seen[full] = true
		if !known[full] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema", indent+"# "+trim)
			changed = true
			continue
		}
		out = append(out, line)
	}

	var missing, into []ConfigOption
	for _, o := range GetConfigOptions() {
		if seen[o.Key] {
			continue
		}
		if i := strings.IndexByte(o.Key, '.'); i >= 0 && tables[o.Key[:i]] {
			into = append(into, o)
			continue
		}
		missing = append(missing, o)
	}
	if len(missing) == 0 && len(into) == 0 {
		return strings.Join(out, "\n"), changed
	}

	var top, added []string
	for _, sec := range splitSections(missing) {
		if len(sec.opts) == 0 {
			continue
		}
		if sec.name == "" {
			for _, o := range sec.opts {
				writeOption(&top, o)
			}
			continue
		}
		added = append(added, "["+sec.name+"]")
		for _, o := range sec.opts {
			writeOption(&added, o)
		}
	}
	if len(top) > 0 {
		// Top-level keys must precede the first table header.
		at := firstHeader
		if at < 0 {
			at = len(out)
		}
		block := append([]string{"# Added by config update"}, top...)
		out = append(out[:at], append(block, out[at:]...)...)
	}
	if len(added) > 0 {
		out = append(out, "", "# Added by config update")
		out = append(out, added...)
	}
	result := strings.Join(out, "\n")
	for _, o := range into {
		result = UpsertOption(result, o.Key, o.Default)
	}
	return result, true
}

// UpsertOption sets one dotted key in an existing TOML string, replacing the
// current value or appending the key to its section.
func UpsertOption(existing, key string, value any) string {
	name, leaf := "", key
	if i := strings.IndexByte(key, '.'); i >= 0 {
		name, leaf = key[:i], key[i+1:]
	}
	entry := leaf + " = " + formatValue(value)

	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines)+2)
	current := ""
	sectionEnd := -1
	done := false
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if s, ok := sectionHeader(trim); ok {
			if current == name && sectionEnd < 0 {
				sectionEnd = len(out)
			}
			current = s
			out = append(out, line)
			continue
		}
		if k, ok := parseTOMLKey(trim); ok && current == name && k == leaf && !done {
			out = append(out, entry)
			done = true
			continue
		}
		out = append(out, line)
	}
	if done {
		return strings.Join(out, "\n")
	}
	if current == name {
		sectionEnd = len(out)
	}
	if sectionEnd >= 0 {
		for sectionEnd > 0 && strings.TrimSpace(out[sectionEnd-1]) == "" {
			sectionEnd--
		}
		out = append(out[:sectionEnd], append([]string{entry}, out[sectionEnd:]...)...)
		return strings.Join(out, "\n")
	}
	if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
		out = append(out, "")
	}
	out = append(out, "["+name+"]", entry)
	return strings.Join(out, "\n")
}

func sectionHeader(trim string) (string, bool) {
	if strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]") {
		return strings.TrimSpace(trim[1 : len(trim)-1]), true
	}
	return "", false
}

func parseTOMLKey(trim string) (string, bool) {
	if trim == "" || strings.HasPrefix(trim, "#") || strings.HasPrefix(trim, ";") {
		return "", false
	}
	idx := strings.Index(trim, "=")
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(trim[:idx])
	if key == "" || strings.HasPrefix(key, "[") || strings.HasPrefix(key, "\"") || strings.HasPrefix(key, "'") {
		return "", false
	}
	return key, true
}

func writeOption(lines *[]string, o ConfigOption) {
	if o.Comment != "" {
		*lines = append(*lines, "# "+o.Comment)
	}
	*lines = append(*lines, o.Key+" = "+formatValue(o.Default), "")
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case time.Duration:
		return strconv.Quote(v.String())
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
