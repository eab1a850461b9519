// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import (
	"regexp"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// structurePatterns holds per-language-family patterns for function-like and
// class-like declarations. These are lexical heuristics, deliberately not a
// parse: counts are approximate and can be fooled by declarations inside
// strings or comments. That trade-off is accepted for bounded per-file cost.
type structurePatterns struct {
	functions *regexp.Regexp
	types     *regexp.Regexp
}

var familyPatterns = map[string]structurePatterns{
	"go": {
		functions: regexp.MustCompile(`(?m)^func\s+(\(\s*\w[^)]*\)\s*)?\w+`),
		types:     regexp.MustCompile(`(?m)^type\s+\w+\s+(struct|interface)\b`),
	},
	"python": {
		functions: regexp.MustCompile(`(?m)^[ \t]*(async\s+)?def\s+\w+`),
		types:     regexp.MustCompile(`(?m)^[ \t]*class\s+\w+`),
	},
	"jslike": {
		functions: regexp.MustCompile(`(?m)^[ \t]*(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s*\w*|^[ \t]*(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s*)?\(`),
		types:     regexp.MustCompile(`(?m)^[ \t]*(export\s+)?(abstract\s+)?(class|interface|enum)\s+\w+`),
	},
	"clike": {
		functions: regexp.MustCompile(`(?m)^[\w&*:<>,\s]+\s[\w:~]+\s*\([^;{]*\)\s*(const\s*)?\{`),
		types:     regexp.MustCompile(`(?m)^[ \t]*(public\s+|private\s+|internal\s+|final\s+|abstract\s+|static\s+)*(class|struct|interface|enum|record)\s+\w+`),
	},
	"ruby": {
		functions: regexp.MustCompile(`(?m)^[ \t]*def\s+[\w.?!=\[\]]+`),
		types:     regexp.MustCompile(`(?m)^[ \t]*(class|module)\s+\w+`),
	},
	"rust": {
		functions: regexp.MustCompile(`(?m)^[ \t]*(pub(\([^)]*\))?\s+)?(async\s+)?(unsafe\s+)?fn\s+\w+`),
		types:     regexp.MustCompile(`(?m)^[ \t]*(pub(\([^)]*\))?\s+)?(struct|enum|trait)\s+\w+`),
	},
	"shell": {
		functions: regexp.MustCompile(`(?m)^[ \t]*(function\s+\w+|\w+\s*\(\)\s*\{)`),
	},
}

// languageFamilies routes languages to a shared pattern family.
var languageFamilies = map[string]string{
	"go":         "go",
	"python":     "python",
	"javascript": "jslike",
	"typescript": "jslike",
	"java":       "clike",
	"kotlin":     "clike",
	"csharp":     "clike",
	"scala":      "clike",
	"c":          "clike",
	"cpp":        "clike",
	"php":        "clike",
	"swift":      "clike",
	"ruby":       "ruby",
	"rust":       "rust",
	"shell":      "shell",
	"perl":       "shell",
}

// SummarizeStructure counts function-like and class-like top-level
// constructs for the detected language. Languages without patterns (markup,
// data, unknown) return a zero summary.
func SummarizeStructure(language string, content []byte) atom.StructureSummary {
	family, ok := languageFamilies[language]
	if !ok {
		return atom.StructureSummary{}
	}
	p := familyPatterns[family]
	var s atom.StructureSummary
	if p.functions != nil {
		s.Functions = len(p.functions.FindAllIndex(content, -1))
	}
	if p.types != nil {
		s.Types = len(p.types.FindAllIndex(content, -1))
	}
	return s
}
