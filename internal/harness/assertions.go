package harness

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

func checkError(r *Result, e Expect, err error) {
	switch {
	case e.Error == "":
		r.AddError(fmt.Sprintf("unexpected compile error: %v", err))
	case !strings.Contains(err.Error(), e.Error):
		r.AddError(fmt.Sprintf("expected error containing %q, got %q", e.Error, err.Error()))
	}
}

func checkNative(r *Result, e Expect, native bool) {
	if e.Native != nil && *e.Native != native {
		r.AddError(fmt.Sprintf("expected native=%t, got native=%t", *e.Native, native))
	}
	if e.Native == nil && !native && (e.Rows != nil || len(e.SQLContains) > 0) {
		r.AddError("query was not natively translatable")
	}
}

func checkSQL(r *Result, e Expect, sql string) {
	for _, want := range e.SQLContains {
		if !strings.Contains(sql, want) {
			r.AddError(fmt.Sprintf("SQL does not contain %q:\n  %s", want, sql))
		}
	}
}

// checkRows compares solutions positionally when ordered, otherwise as
// multisets.
func checkRows(r *Result, expected, actual []Row, ordered bool) {
	if len(expected) != len(actual) {
		r.AddError(fmt.Sprintf("expected %d rows, got %d:\n%s", len(expected), len(actual), formatRows(actual)))
		return
	}

	if ordered {
		for i := range expected {
			if !maps.Equal(expected[i], actual[i]) {
				r.AddError(fmt.Sprintf("row %d: expected %s, got %s", i, rowKey(expected[i]), rowKey(actual[i])))
			}
		}
		return
	}

	want := make([]string, len(expected))
	got := make([]string, len(actual))
	for i := range expected {
		want[i] = rowKey(expected[i])
		got[i] = rowKey(actual[i])
	}
	sort.Strings(want)
	sort.Strings(got)
	if !slices.Equal(want, got) {
		r.AddError(fmt.Sprintf("rows differ:\n  expected %v\n  got      %v", want, got))
	}
}

// rowKey renders a row with its variables sorted, so equal rows render
// identically.
func rowKey(row Row) string {
	names := slices.Sorted(maps.Keys(row))
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + row[n]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatRows(rows []Row) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString("  ")
		b.WriteString(rowKey(row))
		b.WriteByte('\n')
	}
	return b.String()
}
