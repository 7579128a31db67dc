// this file parses the text protocol of the bot commands
package main

import (
	"strings"
	"unicode"
)

// ParseArguments turns whitespace-split tokens of the form -key=value into a
// map keyed by lowercase key. A value starting with a double quote keeps
// consuming tokens until one ends with a double quote; the quotes themselves
// are stripped. Tokens that belong to no key are dropped. A repeated key
// overwrites the earlier value. An unterminated quote simply runs to the end
// of the input.
func ParseArguments(tokens []string) map[string]string {
	parsed := make(map[string]string)

	var currentKey string
	var currentValue []string
	inQuotes := false

	for _, tok := range tokens {
		if strings.HasPrefix(tok, "-") && strings.Contains(tok, "=") {
			if currentKey != "" {
				parsed[currentKey] = strings.Trim(strings.Join(currentValue, " "), `"`)
				currentValue = nil
			}

			kv := strings.SplitN(tok, "=", 2)
			currentKey = strings.ToLower(kv[0][1:])

			val := kv[1]
			if strings.HasPrefix(val, `"`) {
				inQuotes = true
				val = val[1:]
			}

			currentValue = append(currentValue, val)

			if inQuotes && strings.HasSuffix(val, `"`) {
				inQuotes = false
				currentValue[len(currentValue)-1] = strings.TrimSuffix(val, `"`)
			}
		} else if inQuotes {
			currentValue = append(currentValue, tok)

			if strings.HasSuffix(tok, `"`) {
				inQuotes = false
				currentValue[len(currentValue)-1] = strings.TrimSuffix(tok, `"`)
			}
		} else if currentKey != "" {
			currentValue = append(currentValue, tok)
		}
	}

	if currentKey != "" {
		parsed[currentKey] = strings.Trim(strings.Join(currentValue, " "), `"`)
	}

	return parsed
}

// SplitChoices splits a choice list on commas that are outside double
// quotes. A comma inside a quoted span is part of the choice text.
// Whitespace right after a delimiter is skipped and every segment is
// trimmed; empty segments are dropped.
func SplitChoices(s string) []string {
	choices := make([]string, 0)
	var current strings.Builder
	inQuotes := false

	i := 0
	n := len(s)
	for i < n {
		c := s[i]

		switch {
		case c == '"':
			inQuotes = !inQuotes
			i++
		case c == ',' && !inQuotes:
			if seg := strings.TrimSpace(current.String()); seg != "" {
				choices = append(choices, seg)
			}
			current.Reset()
			i++
			for i < n && unicode.IsSpace(rune(s[i])) {
				i++
			}
		default:
			current.WriteByte(c)
			i++
		}
	}

	if seg := strings.TrimSpace(current.String()); seg != "" {
		choices = append(choices, seg)
	}

	return choices
}
