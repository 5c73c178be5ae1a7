// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claude

// defaultContextWindow is used for any model not in the table below, and is
// also every table entry's value today — spec.md §6 names a single set of
// known identifiers that all currently map to 200000, leaving room for a
// future provider extension to diverge per-model.
const defaultContextWindow = 200000

var contextWindowByModel = map[string]int{
	"opus-4-20250514":       defaultContextWindow,
	"sonnet-4-20250514":     defaultContextWindow,
	"3-7-sonnet-latest":     defaultContextWindow,
	"3-7-sonnet-20250219":   defaultContextWindow,
	"3-5-sonnet-latest":     defaultContextWindow,
	"3-5-sonnet-20241022":   defaultContextWindow,
	"3-5-sonnet-20240620":   defaultContextWindow,
	"3-5-haiku-latest":      defaultContextWindow,
	"3-5-haiku-20241022":    defaultContextWindow,
	"3-opus-20240229":       defaultContextWindow,
	"3-sonnet-20240229":     defaultContextWindow,
	"3-haiku-20240307":      defaultContextWindow,
}

// contextWindowForModel looks up a model's context window by name,
// stripping a leading "claude-" vendor prefix if present, and falling
// back to defaultContextWindow for anything unrecognized.
func contextWindowForModel(model string) int {
	name := model
	const prefix = "claude-"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		name = name[len(prefix):]
	}
	if w, ok := contextWindowByModel[name]; ok {
		return w
	}
	return defaultContextWindow
}
