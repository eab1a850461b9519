// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package aggregate

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// Report styles.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
)

// RenderReport produces the human-readable run summary.
//
// Color is applied only when stdout is a terminal; piped output stays plain
// so the report is grep-able.
func RenderReport(summary atom.RunSummary, export *atom.Export) string {
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", style(titleStyle, "corpus scan "+summary.RunID))
	fmt.Fprintf(&b, "%s %s\n", style(labelStyle, "root:"), summary.Root)
	fmt.Fprintf(&b, "%s %d processed, %d skipped, %d errors, %d bytes in %dms\n",
		style(labelStyle, "files:"),
		summary.FilesProcessed, summary.FilesSkipped, len(summary.Errors),
		summary.BytesProcessed, summary.DurationMillis)

	if len(summary.SkipsByReason) > 0 {
		reasons := make([]string, 0, len(summary.SkipsByReason))
		for r := range summary.SkipsByReason {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		parts := make([]string, 0, len(reasons))
		for _, r := range reasons {
			parts = append(parts, fmt.Sprintf("%s=%d", r, summary.SkipsByReason[atom.SkipReason(r)]))
		}
		fmt.Fprintf(&b, "%s %s\n", style(labelStyle, "skips:"), strings.Join(parts, " "))
	}

	fmt.Fprintf(&b, "%s %d atoms, %d edges", style(labelStyle, "graph:"),
		export.Metadata.AtomCount, export.Metadata.EdgeCount)
	for _, kind := range atom.EdgeKinds {
		if n := summary.EdgesByKind[kind]; n > 0 {
			fmt.Fprintf(&b, " %s=%d", kind, n)
		}
	}
	b.WriteByte('\n')

	if summary.DirectoriesTruncated > 0 || summary.DomainsTruncated > 0 {
		fmt.Fprintf(&b, "%s\n", style(warnStyle, fmt.Sprintf(
			"capped pairing: %d directories, %d domain labels hit the fan-out limit",
			summary.DirectoriesTruncated, summary.DomainsTruncated)))
	}

	if len(export.PrivacyDistribution) > 0 {
		fmt.Fprintf(&b, "%s", style(labelStyle, "privacy:"))
		for _, lvl := range []atom.PrivacyLevel{atom.PrivacyPublic, atom.PrivacyInternal, atom.PrivacyConfidential} {
			if n := export.PrivacyDistribution[lvl]; n > 0 {
				fmt.Fprintf(&b, " %s=%d", lvl, n)
			}
		}
		b.WriteByte('\n')
	}

	if len(export.DomainDistribution) > 0 {
		labels := make([]string, 0, len(export.DomainDistribution))
		for l := range export.DomainDistribution {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		fmt.Fprintf(&b, "%s", style(labelStyle, "domains:"))
		for _, l := range labels {
			stat := export.DomainDistribution[l]
			fmt.Fprintf(&b, " %s=%d(%dB)", l, stat.Atoms, stat.Bytes)
		}
		b.WriteByte('\n')
	}

	for _, fe := range summary.Errors {
		fmt.Fprintf(&b, "%s %s: %s\n", style(warnStyle, "error:"), fe.Path, fe.Err)
	}
	return b.String()
}
