package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"catalog_srv/internal/domain/query"
)

// realLiteral accepts plain decimal and exponent forms only, so NaN, Inf
// and underscore separators stay text.
var realLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseParams turns name=value pairs into query parameters.
func parseParams(pairs []string) (query.Params, error) {
	params := make(query.Params, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q: expected name=value", pair)
		}
		params[name] = parseValue(raw)
	}
	return params, nil
}

// parseValue reads a typed value. The int:, real:, text: and list: prefixes
// force a kind; a value that does not parse as the forced kind is invalid.
// Without a prefix the kind is inferred as integer, then real, then text.
func parseValue(raw string) query.Value {
	kind, rest, ok := strings.Cut(raw, ":")
	if ok {
		switch kind {
		case "int":
			i, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return query.Value{}
			}
			return query.Integer(i)
		case "real":
			f, ok := parseReal(rest)
			if !ok {
				return query.Value{}
			}
			return query.Real(f)
		case "text":
			return query.Text(rest)
		case "list":
			if rest == "" {
				return query.List()
			}
			parts := strings.Split(rest, ",")
			items := make([]query.Value, len(parts))
			for i, p := range parts {
				items[i] = query.Text(p)
			}
			return query.List(items...)
		}
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return query.Integer(i)
	}
	if f, ok := parseReal(raw); ok {
		return query.Real(f)
	}
	return query.Text(raw)
}

func parseReal(raw string) (float64, bool) {
	if !realLiteral.MatchString(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	return f, err == nil
}
