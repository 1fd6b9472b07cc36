package ingest

import "strings"

// NormalizeRow maps one parsed CSV record into a column -> value lookup
// with lowercased, trimmed keys, so the configured text column resolves
// regardless of how the uploader cased the header. If the source header
// carried duplicate case-variant names, the later one wins. Values pass
// through unchanged.
func NormalizeRow(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, h := range header {
		if i >= len(record) {
			break
		}
		row[normalizeColumn(h)] = record[i]
	}
	return row
}

func normalizeColumn(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `"`, "")
	return strings.ToLower(name)
}
