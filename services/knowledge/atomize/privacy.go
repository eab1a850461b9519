// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// PrivacyRules configures the ordered privacy cascade.
//
// Rules are applied first match wins, in this order:
//
//  1. confidential: SecretPaths match on the relative path, or
//     SecretContent match on the raw bytes.
//  2. public: documentation-class content (doc extensions and readme-class
//     filenames).
//  3. internal: everything else (source, configuration, build logic), and
//     the fail-safe default for anything ambiguous.
//
// Content rules outrank path rules: a README containing a secret-shaped
// token classifies confidential, not public.
type PrivacyRules struct {
	// SecretPaths are regexes matched against the slash-separated relative
	// path, case-insensitively.
	SecretPaths []string `yaml:"secret_paths"`

	// SecretContent are regexes matched against file content.
	SecretContent []string `yaml:"secret_content"`
}

// DefaultPrivacyRules returns the standard rule set.
func DefaultPrivacyRules() PrivacyRules {
	return PrivacyRules{
		SecretPaths: []string{
			`(^|/)\.env([.-][\w.-]+)?$`,
			`(^|/)secrets?([._-][\w.-]+)?$`,
			`(^|/)credentials?([._-][\w.-]+)?$`,
			`(^|/)id_(rsa|dsa|ecdsa|ed25519)$`,
			`\.(pem|p12|pfx|key|keystore|jks)$`,
			`(^|/)\.(netrc|npmrc|pypirc)$`,
			`(^|/)(htpasswd|\.htpasswd)$`,
		},
		SecretContent: []string{
			`(?i)\b(api[_-]?key|access[_-]?key|secret[_-]?key|auth[_-]?token|token|password|passwd|client[_-]?secret)\b\s*[:=]\s*\S+`,
			`-----BEGIN (RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY( BLOCK)?-----`,
			`(?i)\baws_secret_access_key\b`,
			`(?i)\bauthorization:\s*(bearer|basic)\s+\S+`,
		},
	}
}

// RedactionMarker replaces secret-shaped spans in excerpts.
const RedactionMarker = "[REDACTED]"

// docExtensions identify documentation-class files.
var docExtensions = map[string]bool{
	".md": true, ".rst": true, ".adoc": true, ".txt": true,
}

// docBasenames identify readme-class files regardless of extension.
var docBasenames = map[string]bool{
	"readme": true, "license": true, "licence": true, "changelog": true,
	"contributing": true, "authors": true, "notice": true, "copying": true,
	"code_of_conduct": true,
}

// PrivacyClassifier applies the privacy cascade and excerpt redaction.
//
// # Thread Safety
//
// Safe for concurrent use. Patterns are pre-compiled at construction and
// never mutated afterwards.
type PrivacyClassifier struct {
	secretPaths   []*regexp.Regexp
	secretContent []*regexp.Regexp
}

// NewPrivacyClassifier compiles the rule set.
//
// # Outputs
//
//   - *PrivacyClassifier: Ready-to-use classifier.
//   - error: Non-nil if any pattern fails to compile. Privacy rules are a
//     security control, so a broken rule aborts startup rather than being
//     silently dropped.
func NewPrivacyClassifier(rules PrivacyRules) (*PrivacyClassifier, error) {
	c := &PrivacyClassifier{}
	for _, p := range rules.SecretPaths {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile secret path rule %q: %w", p, err)
		}
		c.secretPaths = append(c.secretPaths, re)
	}
	for _, p := range rules.SecretContent {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile secret content rule %q: %w", p, err)
		}
		c.secretContent = append(c.secretContent, re)
	}
	return c, nil
}

// Classify runs the ordered cascade for one file.
func (c *PrivacyClassifier) Classify(relPath string, content []byte) atom.PrivacyLevel {
	for _, re := range c.secretPaths {
		if re.MatchString(relPath) {
			return atom.PrivacyConfidential
		}
	}
	for _, re := range c.secretContent {
		if re.Match(content) {
			return atom.PrivacyConfidential
		}
	}
	if isDocumentation(relPath) {
		return atom.PrivacyPublic
	}
	return atom.PrivacyInternal
}

// Redact replaces every secret-shaped span with the redaction marker. It is
// applied to every excerpt, not only confidential atoms: an internal file
// with an embedded token still must not leak it through the preview.
func (c *PrivacyClassifier) Redact(content []byte) []byte {
	out := content
	for _, re := range c.secretContent {
		out = re.ReplaceAll(out, []byte(RedactionMarker))
	}
	return out
}

// isDocumentation reports whether a path is documentation-class.
func isDocumentation(relPath string) bool {
	base := strings.ToLower(path.Base(relPath))
	if docExtensions[strings.ToLower(path.Ext(relPath))] {
		return true
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return docBasenames[base]
}
