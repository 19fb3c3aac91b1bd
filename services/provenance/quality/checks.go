// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quality

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// typeSampleLimit bounds how many records type inference examines
	// per column.
	typeSampleLimit = 50

	// patternSampleLimit bounds how many values are validated against
	// each pattern signature entry.
	patternSampleLimit = 20
)

// extractSchema derives column name/type/position from parsed data.
// Types are inferred from up to typeSampleLimit values per column;
// mixed types collapse to "string".
func extractSchema(content *ParsedContent) []SchemaColumn {
	cols := make([]SchemaColumn, 0, len(content.Columns))
	for pos, name := range content.Columns {
		cols = append(cols, SchemaColumn{
			Name:     name,
			Type:     inferColumnType(content.Records, name),
			Position: pos,
		})
	}
	return cols
}

func inferColumnType(records []map[string]any, column string) string {
	inferred := ""
	seen := 0
	for _, rec := range records {
		if seen >= typeSampleLimit {
			break
		}
		value, ok := rec[column]
		if !ok || value == nil {
			continue
		}
		seen++
		t := valueType(value)
		if inferred == "" {
			inferred = t
		} else if inferred != t {
			return "string"
		}
	}
	if inferred == "" {
		return "string"
	}
	return inferred
}

func valueType(v any) string {
	switch val := v.(type) {
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case string:
		if _, err := strconv.ParseFloat(val, 64); err == nil && val != "" {
			return "number"
		}
		return "string"
	default:
		return "string"
	}
}

// compareSchemas checks the parsed schema against the declared one,
// case-insensitively on names and types. Missing fields are the
// declared columns absent from the parsed data.
func compareSchemas(parsed, declared []SchemaColumn) *SchemaMatch {
	byName := make(map[string]SchemaColumn, len(parsed))
	for _, col := range parsed {
		byName[strings.ToLower(col.Name)] = col
	}

	match := &SchemaMatch{ExactMatch: len(parsed) == len(declared)}
	for _, want := range declared {
		key := strings.ToLower(want.Name)
		got, ok := byName[key]
		if !ok {
			match.MissingFields = append(match.MissingFields, want.Name)
			match.ExactMatch = false
			continue
		}
		if !strings.EqualFold(got.Type, want.Type) {
			match.Differences = append(match.Differences,
				fmt.Sprintf("%s: type %s != %s", want.Name, got.Type, want.Type))
			match.ExactMatch = false
		}
		if got.Position != want.Position {
			match.Differences = append(match.Differences,
				fmt.Sprintf("%s: position %d != %d", want.Name, got.Position, want.Position))
			match.ExactMatch = false
		}
	}
	sort.Strings(match.MissingFields)
	sort.Strings(match.Differences)
	return match
}

// validatePatterns checks sample values against the embedding's
// pattern signature and returns the columns with mismatches, sorted.
// Patterns that do not compile are skipped: a broken signature is an
// embedding defect, not a data defect, and skipping keeps the result
// deterministic.
func validatePatterns(content *ParsedContent, signature map[string]string) []string {
	if len(signature) == 0 {
		return nil
	}

	keys := make([]string, 0, len(signature))
	for k := range signature {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatched []string
	for _, key := range keys {
		re, err := regexp.Compile(signature[key])
		if err != nil {
			continue
		}
		column := matchColumn(content.Columns, key)
		if column == "" {
			continue
		}
		checked := 0
		for _, rec := range content.Records {
			if checked >= patternSampleLimit {
				break
			}
			value, ok := rec[column]
			if !ok || value == nil {
				continue
			}
			checked++
			if !re.MatchString(fmt.Sprint(value)) {
				mismatched = append(mismatched, column)
				break
			}
		}
	}
	return mismatched
}

func matchColumn(columns []string, lowerName string) string {
	for _, c := range columns {
		if strings.EqualFold(c, lowerName) {
			return c
		}
	}
	return ""
}

// parsingIssues flags parse errors and empty parse results.
func parsingIssues(content *ParsedContent) []Issue {
	var issues []Issue
	if len(content.ParseErrors) > 0 {
		issues = append(issues, Issue{
			Type:       IssueParseErrors,
			Severity:   SeverityHigh,
			Dimension:  DimensionParsing,
			Suggestion: fmt.Sprintf("parser recorded %d error(s); inspect the first: %s", len(content.ParseErrors), content.ParseErrors[0]),
		})
	}
	if len(content.Records) == 0 {
		issues = append(issues, Issue{
			Type:       IssueEmptyParseResult,
			Severity:   SeverityMedium,
			Dimension:  DimensionParsing,
			Suggestion: "the parser produced no records; verify the file type matches the parser",
		})
	}
	return issues
}

// parsingStatus derives the parsing axis status from content and issues.
func parsingStatus(content *ParsedContent, issues []Issue) Status {
	switch {
	case len(content.Records) == 0 && len(content.ParseErrors) > 0:
		return StatusFailed
	case len(content.Records) == 0:
		return StatusPoor
	case len(issues) == 0:
		return StatusGood
	default:
		return StatusIssues
	}
}

// embeddingIssues compares parsed content with the deterministic
// embedding and returns the issues plus the schema match report.
func embeddingIssues(content *ParsedContent, embedding *StructuralEmbedding) ([]Issue, *SchemaMatch) {
	parsedSchema := extractSchema(content)
	match := compareSchemas(parsedSchema, embedding.Schema)

	var issues []Issue
	if !match.ExactMatch {
		issues = append(issues, Issue{
			Type:       IssueSchemaMismatch,
			Severity:   SeverityMedium,
			Dimension:  DimensionEmbedding,
			Suggestion: "parsed schema differs from the deterministic embedding; regenerate the embedding if the source format changed",
		})
	}
	if len(match.MissingFields) > 0 {
		issues = append(issues, Issue{
			Type:       IssueMissingFields,
			Severity:   SeverityHigh,
			Dimension:  DimensionEmbedding,
			Suggestion: "fields declared by the embedding are absent from the parse: " + strings.Join(match.MissingFields, ", "),
		})
	}
	if mismatched := validatePatterns(content, embedding.PatternSignature); len(mismatched) > 0 {
		issues = append(issues, Issue{
			Type:       IssuePatternMismatch,
			Severity:   SeverityMedium,
			Dimension:  DimensionEmbedding,
			Suggestion: "sample values do not match the pattern signature for: " + strings.Join(mismatched, ", "),
		})
	}
	return issues, match
}

// dataIssues flags record-level problems, including semantic
// embeddings whose own confidence signals a faded or corrupted source.
func dataIssues(content *ParsedContent, semantic []SemanticEmbedding) []Issue {
	var issues []Issue
	if len(content.Records) == 0 {
		issues = append(issues, Issue{
			Type:       IssueNoRecords,
			Severity:   SeverityHigh,
			Dimension:  DimensionData,
			Suggestion: "no records to assess; re-run the parse or check the source",
		})
	}
	for _, emb := range semantic {
		if emb.Confidence < lowEmbeddingConfidence {
			issues = append(issues, Issue{
				Type:       IssueLowConfEmbeddings,
				Severity:   SeverityMedium,
				Dimension:  DimensionData,
				Suggestion: "semantic embedding confidence below threshold; the source may be faded or corrupted",
			})
			break
		}
	}
	return issues
}

// sourceIssues runs parser-specific structural checks against source
// metadata.
func sourceIssues(parserType string, content *ParsedContent, meta map[string]string) []Issue {
	var issues []Issue
	switch strings.ToLower(parserType) {
	case "mainframe", "copybook":
		declared, ok := meta["copybook_field_count"]
		if ok {
			n, err := strconv.Atoi(declared)
			if err == nil && n != len(content.Columns) {
				issues = append(issues, Issue{
					Type:       IssueCopybookMismatch,
					Severity:   SeverityHigh,
					Dimension:  DimensionSource,
					Suggestion: fmt.Sprintf("copybook declares %d fields but the data has %d; the copybook and data file may be out of sync", n, len(content.Columns)),
				})
			}
		}
	case "edi":
		if _, ok := meta["interchange_control_number"]; !ok {
			issues = append(issues, Issue{
				Type:       IssueMissingInterchange,
				Severity:   SeverityMedium,
				Dimension:  DimensionSource,
				Suggestion: "EDI source lacks an interchange control number; verify the envelope was captured",
			})
		}
	}
	return issues
}

func countBySeverity(issues []Issue, dim Dimension) (high, med int) {
	for _, issue := range issues {
		if issue.Dimension != dim {
			continue
		}
		switch issue.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			med++
		}
	}
	return high, med
}
