package indexing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rulekeeper/rulebook-mcp/internal/content"
)

// Flatten converts the rule tree and the reference tables into one ordered
// list of search records: the rule tree first (depth-first, parent before
// children), then every table in input order. Missing optional fields become
// empty strings; nothing here fails.
func Flatten(rules []content.RuleNode, tables []content.ReferenceTable) []SearchRecord {
	var records []SearchRecord
	for _, node := range rules {
		records = flattenNode(records, node, "", nil)
	}
	for _, table := range tables {
		records = flattenTable(records, table)
	}
	return records
}

func flattenNode(records []SearchRecord, node content.RuleNode, parentID string, parentPath []string) []SearchRecord {
	body := make([]string, 0, len(node.Body))
	for _, para := range node.Body {
		body = append(body, PlainText(para))
	}

	records = append(records, SearchRecord{
		ID:              node.ID,
		Title:           qualifiedTitle(parentPath, node.Title),
		ShortTitle:      node.Title,
		Content:         joinText(PlainText(node.Summary), joinText(body...)),
		Kind:            KindSection,
		ParentSectionID: parentID,
		ParentPath:      copyPath(parentPath),
		Depth:           len(parentPath),
	})

	if len(node.Children) == 0 {
		return records
	}

	childPath := append(copyPath(parentPath), node.Title)
	for _, child := range node.Children {
		records = flattenNode(records, child, node.ID, childPath)
	}
	return records
}

// flattenTable emits one header record per table (flat) or per group
// (grouped), each followed by its rows. Groups keep first-seen order.
func flattenTable(records []SearchRecord, table content.ReferenceTable) []SearchRecord {
	if !table.Grouped {
		headerID := table.Kind
		records = append(records, SearchRecord{
			ID:              headerID,
			Title:           table.Title,
			ShortTitle:      table.Title,
			Content:         "",
			Kind:            KindSection,
			ParentSectionID: headerID,
			ParentPath:      []string{},
			Depth:           0,
		})
		rowPath := []string{table.Title}
		for _, row := range table.Rows {
			records = append(records, rowRecord(row, headerID, rowPath))
		}
		return records
	}

	var order []string
	groups := make(map[string][]content.TableRow)
	titles := make(map[string]string)
	for _, row := range table.Rows {
		key := Slug(row.Group)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			titles[key] = groupTitle(row)
		}
		groups[key] = append(groups[key], row)
	}

	for _, key := range order {
		headerID := fmt.Sprintf("%s-%s", table.Kind, key)
		title := titles[key]
		records = append(records, SearchRecord{
			ID:              headerID,
			Title:           qualifiedTitle([]string{table.Title}, title),
			ShortTitle:      title,
			Content:         "",
			Kind:            KindSection,
			ParentSectionID: headerID,
			ParentPath:      []string{table.Title},
			Depth:           1,
		})
		rowPath := []string{table.Title, title}
		for _, row := range groups[key] {
			records = append(records, rowRecord(row, headerID, rowPath))
		}
	}
	return records
}

func rowRecord(row content.TableRow, headerID string, parentPath []string) SearchRecord {
	return SearchRecord{
		ID:              fmt.Sprintf("%s-%s", headerID, Slug(row.Name)),
		Title:           qualifiedTitle(parentPath, row.Name),
		ShortTitle:      row.Name,
		Content:         joinText(PlainText(row.Description), formatStats(row.Stats), PlainText(row.Notes)),
		Kind:            KindRule,
		ParentSectionID: headerID,
		ParentPath:      copyPath(parentPath),
		Depth:           len(parentPath),
	}
}

// groupTitle prefers the authored group title, then the raw group key
func groupTitle(row content.TableRow) string {
	if strings.TrimSpace(row.GroupTitle) != "" {
		return row.GroupTitle
	}
	return row.Group
}

// formatStats renders stats as "label: value" pairs in label order
func formatStats(stats map[string]string) string {
	if len(stats) == 0 {
		return ""
	}
	labels := make([]string, 0, len(stats))
	for label := range stats {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if value := strings.TrimSpace(stats[label]); value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	return strings.Join(parts, " ")
}

func qualifiedTitle(parentPath []string, title string) string {
	if len(parentPath) == 0 {
		return title
	}
	return strings.Join(parentPath, TitleSeparator) + TitleSeparator + title
}

func copyPath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
