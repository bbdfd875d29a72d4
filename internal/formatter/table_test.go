package formatter

import (
	"testing"
)

func TestTable(t *testing.T) {
	t.Run("Header And Body", func(t *testing.T) {
		got := Table{}.Render(
			[][]string{{"ID", "Size"}},
			[][]string{{"a", "10B"}, {"bb", "2KB"}},
		)
		want := "ID | Size\n---+-----\na  | 10B \nbb | 2KB \n"
		if got != want {
			t.Errorf("unexpected table\nwant %q\n got %q", want, got)
		}
	})

	t.Run("Single Group", func(t *testing.T) {
		got := Table{}.Render([][]string{{"x", "long"}, {"yyy", "z"}})
		want := "x   | long\nyyy | z   "
		if got != want {
			t.Errorf("unexpected table\nwant %q\n got %q", want, got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := (Table{}).Render(); got != "" {
			t.Errorf("expected empty output, got %q", got)
		}
		if got := (Table{}).Render(nil, nil); got != "" {
			t.Errorf("expected empty output for empty groups, got %q", got)
		}
	})

	t.Run("Never Truncates", func(t *testing.T) {
		got := Table{MinWidths: []int{2}}.Render([][]string{{"abcdef"}})
		if got != "abcdef" {
			t.Errorf("expected cell intact, got %q", got)
		}
	})

	t.Run("MinWidths", func(t *testing.T) {
		got := Table{MinWidths: []int{5, 3}}.Render([][]string{{"a", "b"}})
		if got != "a     | b  " {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("Custom Delimiter", func(t *testing.T) {
		got := Table{Delimiter: "  "}.Render([][]string{{"Direction", "URL"}}, [][]string{{"FROM", "x"}})
		want := "Direction  URL\n----------+----\nFROM       x  \n"
		if got != want {
			t.Errorf("unexpected table\nwant %q\n got %q", want, got)
		}
	})

	t.Run("Ragged Rows", func(t *testing.T) {
		got := Table{}.Render([][]string{{"a", "b", "c"}, {"d"}})
		if got != "a | b | c\nd |   |  " {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("Display Width", func(t *testing.T) {
		got := Table{}.Render([][]string{{"日本"}, {"ab"}})
		if got != "日本\nab  " {
			t.Errorf("unexpected output %q", got)
		}
	})
}
