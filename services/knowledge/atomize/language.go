// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import (
	"bytes"
	"path"
	"strings"
)

// LanguageUnknown is the fallback when no extension or shebang matches.
const LanguageUnknown = "unknown"

// extLanguages maps file extensions to language names.
var extLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
	".sql":   "sql",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".scss":  "css",
	".md":    "markdown",
	".rst":   "markdown",
	".adoc":  "markdown",
	".txt":   "text",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".proto": "protobuf",
	".tf":    "terraform",
}

// nameLanguages maps extensionless well-known filenames.
var nameLanguages = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
	"rakefile":   "ruby",
	"gemfile":    "ruby",
	"jenkinsfile": "groovy",
}

// shebangLanguages maps interpreter substrings on a '#!' line to languages,
// checked in order.
var shebangLanguages = []struct {
	needle string
	lang   string
}{
	{"python", "python"},
	{"node", "javascript"},
	{"ruby", "ruby"},
	{"bash", "shell"},
	{"zsh", "shell"},
	{"/sh", "shell"},
	{"perl", "perl"},
}

// DetectLanguage resolves a language from the extension table, falling back
// to well-known filenames and then shebang inspection for extensionless
// scripts. Returns LanguageUnknown when nothing matches.
func DetectLanguage(relPath string, content []byte) string {
	ext := strings.ToLower(path.Ext(relPath))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	if lang, ok := nameLanguages[strings.ToLower(path.Base(relPath))]; ok {
		return lang
	}
	if lang := shebangLanguage(content); lang != "" {
		return lang
	}
	return LanguageUnknown
}

// shebangLanguage inspects the first line for an interpreter directive.
func shebangLanguage(content []byte) string {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return ""
	}
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	s := string(line)
	for _, sb := range shebangLanguages {
		if strings.Contains(s, sb.needle) {
			return sb.lang
		}
	}
	return ""
}
