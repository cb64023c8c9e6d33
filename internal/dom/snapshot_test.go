package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const nestedPage = `
<html>
<head><title>Case Summary</title><script>var hidden = "Party Type";</script></head>
<body>
  <div>Case Summary</div>
  <table id="layout">
    <tr><td>
      <table id="parties">
        <tr><th>Party Type</th><th>Party Name</th></tr>
        <tr><td>Executor</td><td>JANE   DOE</td></tr>
      </table>
    </td></tr>
  </table>
  <p>See <a href="/docs/view?id=7" title="Letters">letters</a> and <a href="#">more</a></p>
</body>
</html>`

func TestParse_RendersText(t *testing.T) {
	page, err := ParseString(nestedPage, "https://portal.example.gov/case/1")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	want := "Case Summary\nParty Type\tParty Name\nExecutor\tJANE DOE\nSee letters and more"
	if diff := cmp.Diff(want, page.Text); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_TablesAndParents(t *testing.T) {
	page, err := ParseString(nestedPage, "https://portal.example.gov/case/1")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	if len(page.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(page.Tables))
	}
	if page.Tables[0].Parent != -1 {
		t.Errorf("outer table parent = %d, want -1", page.Tables[0].Parent)
	}
	if page.Tables[1].Parent != 0 {
		t.Errorf("inner table parent = %d, want 0", page.Tables[1].Parent)
	}

	// The layout row only; inner rows belong to the inner table
	if len(page.Tables[0].Rows) != 1 {
		t.Errorf("outer rows = %d, want 1", len(page.Tables[0].Rows))
	}
	if !page.Tables[0].Rows[0].Cells[0].Container {
		t.Error("layout cell should be marked as container")
	}

	inner := page.Tables[1]
	wantRow := Row{
		Text:  "Executor\tJANE DOE",
		Cells: []Cell{{Text: "Executor"}, {Text: "JANE DOE"}},
	}
	if diff := cmp.Diff(wantRow, inner.Rows[1]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	if !inner.Rows[0].Cells[0].Header {
		t.Error("th cell should be marked as header")
	}
}

func TestParse_CellsInDocumentOrder(t *testing.T) {
	page, err := ParseString(nestedPage, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	var texts []string
	for _, c := range page.Cells {
		if !c.Container {
			texts = append(texts, c.Text)
		}
	}
	want := []string{"Party Type", "Party Name", "Executor", "JANE DOE"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ResolvesLinks(t *testing.T) {
	page, err := ParseString(nestedPage, "https://portal.example.gov/case/1")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	want := []Link{
		{Href: "https://portal.example.gov/docs/view?id=7", Text: "letters", Title: "Letters"},
		{Href: "#", Text: "more"},
	}
	if diff := cmp.Diff(want, page.Links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestFindTable_PrefersInnermost(t *testing.T) {
	page, err := ParseString(nestedPage, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	table := page.FindTable("party type")
	if table == nil {
		t.Fatal("expected a table")
	}
	if table.Index != 1 {
		t.Errorf("FindTable picked table %d, want the inner table 1", table.Index)
	}

	if page.FindTable("no such marker") != nil {
		t.Error("expected nil for an unmatched marker")
	}
}

func TestFindTable_FirstOfSiblings(t *testing.T) {
	page, err := ParseString(`<table><tr><td>Filed document A</td></tr></table>
		<table><tr><td>Filed document B</td></tr></table>`, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	table := page.FindTable("document")
	if table == nil || table.Index != 0 {
		t.Fatalf("expected first sibling table, got %+v", table)
	}
}

func TestRenderText_DropsHiddenAndBlankLines(t *testing.T) {
	page, err := ParseString(`<body><p>one</p><p>  </p><style>p{}</style><div>two<br>three</div></body>`, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	if page.Text != "one\ntwo\nthree" {
		t.Errorf("unexpected text %q", page.Text)
	}
}
