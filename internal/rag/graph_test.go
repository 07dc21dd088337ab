package rag

import (
	"strings"
	"testing"
)

func TestGraphQueryNoMatches(t *testing.T) {
	g := DefaultGraph()
	got := g.Query("quarterly tax filing")
	if got != "No relevant information found in knowledge graph." {
		t.Fatalf("unexpected sentinel: %q", got)
	}
}

func TestGraphQueryNoRelationships(t *testing.T) {
	g := NewGraph()
	g.AddEntity("nausea", "symptom")
	got := g.Query("I have nausea")
	if got != "No relationships found." {
		t.Fatalf("unexpected sentinel: %q", got)
	}
}

func TestGraphQueryFormatsRelations(t *testing.T) {
	g := DefaultGraph()
	got := g.Query("fever")
	want := "fever: related to flu, COVID-19, pneumonia"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGraphQueryCapsEntitiesAndNeighbors(t *testing.T) {
	g := NewGraph()
	for _, name := range []string{"pain a", "pain b", "pain c", "pain d", "pain e", "pain f"} {
		g.AddEntity(name, "symptom")
		for _, target := range []string{"w", "x", "y", "z"} {
			g.AddRelation(name, target, "may_indicate")
		}
	}
	got := g.Query("pain")
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 entity lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "pain a: related to w, x, y" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestGraphQueryIsCaseInsensitive(t *testing.T) {
	g := DefaultGraph()
	got := g.Query("FEVER and chills")
	if !strings.HasPrefix(got, "fever: related to") {
		t.Fatalf("case-insensitive match failed: %q", got)
	}
}

func TestRelatedEntitiesBoundedHops(t *testing.T) {
	g := DefaultGraph()

	oneHop := g.RelatedEntities("fever", 1)
	for _, r := range oneHop {
		if r.Distance != 1 {
			t.Fatalf("one-hop result at distance %d: %#v", r.Distance, r)
		}
	}

	twoHop := g.RelatedEntities("fever", 2)
	if len(twoHop) <= len(oneHop) {
		t.Fatalf("expected two-hop expansion to grow: %d vs %d", len(twoHop), len(oneHop))
	}
	found := false
	for _, r := range twoHop {
		if r.Entity == "rest" && r.Distance == 2 && r.Type == "treatment" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected rest at distance 2 via flu, got %#v", twoHop)
	}
}

func TestRelatedEntitiesAbsentEntity(t *testing.T) {
	g := DefaultGraph()
	if got := g.RelatedEntities("unicorn pox", 3); len(got) != 0 {
		t.Fatalf("expected empty result for absent entity, got %#v", got)
	}
}

func TestDefaultGraphSeed(t *testing.T) {
	g := DefaultGraph()
	if g.Size() != 24 {
		t.Fatalf("expected 24 seeded entities, got %d", g.Size())
	}
}
