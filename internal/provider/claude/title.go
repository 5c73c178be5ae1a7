// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claude

import (
	"regexp"
	"strings"
)

var (
	bracketedModeRe  = regexp.MustCompile(`^\[[A-Z0-9 _-]+(:.*)?\]$`)
	systemPreambleRe = regexp.MustCompile(`(?i)^#\s*(AGENTS\.md|System|Instructions)\b`)
	xmlSystemWrapRe  = regexp.MustCompile(`(?is)^<(system_context|environment_context|user_instructions|INSTRUCTIONS)>`)
	shellPastedRe    = regexp.MustCompile(`^[>$]\s+\S`)
	agentBoilerRe    = regexp.MustCompile(`(?i)^you are an automated\b`)
	digitLogDumpRe   = regexp.MustCompile(`^[\d,\s]+$`)
	ideContextRe     = regexp.MustCompile(`(?is)^context[^.]*\.\s*my request:\s*(.*)$`)
)

// extractTitle applies spec.md §4.2's title-rejection rules and the
// IDE-preamble extraction rule to a candidate first-user-message, returning
// ("", false) when the candidate should be rejected outright.
func extractTitle(candidate string) (string, bool) {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return "", false
	}

	if m := ideContextRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
		if s == "" {
			return "", false
		}
	}

	switch {
	case bracketedModeRe.MatchString(s):
		return "", false
	case systemPreambleRe.MatchString(s):
		return "", false
	case xmlSystemWrapRe.MatchString(s):
		return "", false
	case shellPastedRe.MatchString(s):
		return "", false
	case agentBoilerRe.MatchString(s):
		return "", false
	case digitLogDumpRe.MatchString(s):
		return "", false
	}

	return truncateCollapsed(s, 200), true
}

// extractSummary applies only the collapse/truncate step at the summary
// length — summaries are not subject to the title-rejection rules, only the
// same whitespace normalization.
func extractSummary(candidate string) string {
	return truncateCollapsed(strings.TrimSpace(candidate), 240)
}

var whitespaceRunRe = regexp.MustCompile(`\s+`)

func truncateCollapsed(s string, max int) string {
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = strings.TrimSpace(s[:max])
	}
	return s
}
