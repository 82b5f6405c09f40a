package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"wrapped/internal/core"
	"wrapped/internal/services"
)

// resolveYear maps a -year value to a year. "latest" (or empty) picks the
// newest year with orders; "all" and "0" select every year.
func resolveYear(sel string, available []int) (int, error) {
	switch s := strings.ToLower(strings.TrimSpace(sel)); s {
	case "", "latest":
		if len(available) == 0 {
			return core.AllYears, nil
		}
		return slices.Max(available), nil
	case "all", "0":
		return core.AllYears, nil
	default:
		year, err := strconv.Atoi(s)
		if err != nil || year < 0 {
			return 0, usagef("invalid -year %q: want a year, latest or all", sel)
		}
		return year, nil
	}
}

// queryRecaps evaluates a JSONPath expression against the JSON form of the
// recaps: one recap is the root object, several are a root array.
func queryRecaps(recaps []*services.Recap, path string) (any, error) {
	var v any = recaps
	if len(recaps) == 1 {
		v = recaps[0]
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode recaps: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode recaps: %w", err)
	}
	out, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, usagef("query %q: %v", path, err)
	}
	return out, nil
}
