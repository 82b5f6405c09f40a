package main

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"wrapped/internal/explore"
	"wrapped/internal/intake"
	"wrapped/internal/render"
)

// completion describes the command line for shell completion. Install it
// with COMP_INSTALL=1 wrapped.
func completion() *complete.Command {
	formats := make(predict.Set, len(render.Formats))
	for i, f := range render.Formats {
		formats[i] = string(f)
	}
	sorts := make(predict.Set, len(explore.SortFields))
	for i, f := range explore.SortFields {
		sorts[i] = string(f)
	}
	years := predict.Set{"latest", "all"}

	filters := map[string]complete.Predictor{
		"year":     years,
		"search":   predict.Something,
		"store":    predict.Something,
		"category": predict.Something,
		"sort":     sorts,
		"asc":      predict.Nothing,
	}
	with := func(extra map[string]complete.Predictor) map[string]complete.Predictor {
		out := make(map[string]complete.Predictor, len(filters)+len(extra))
		for k, v := range filters {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"source":    predict.Files("*"),
			"type":      predict.Set(intake.GetTypeStrings()),
			"tz":        predict.Something,
			"currency":  predict.Something,
			"log-level": predict.Set{"debug", "info", "warn", "error"},
			"env-file":  predict.Files("*"),
		},
		Sub: map[string]*complete.Command{
			"years": {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
			"recap": {Flags: map[string]complete.Predictor{
				"year":         years,
				"all":          predict.Nothing,
				"format":       formats,
				"o":            predict.Files("*"),
				"width":        predict.Something,
				"query":        predict.Something,
				"publish":      predict.Nothing,
				"metrics-file": predict.Files("*.prom"),
			}},
			"explore": {Flags: with(map[string]complete.Predictor{
				"page":       predict.Something,
				"per-page":   predict.Something,
				"format":     predict.Set{"term", "markdown", "json"},
				"stores":     predict.Nothing,
				"categories": predict.Nothing,
			})},
			"export": {Flags: with(map[string]complete.Predictor{
				"o": predict.Files("*.csv"),
			})},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
	}
}
