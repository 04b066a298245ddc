package catalog

import (
	"testing"
	"time"
)

func TestDistrictsCanonical(t *testing.T) {
	ds := Districts()
	if len(ds) != 24 {
		t.Fatalf("got %d districts; want 24", len(ds))
	}
	if ds[0].ID != "02" || ds[23].ID != "94" {
		t.Fatalf("unexpected order: first=%s last=%s", ds[0].ID, ds[23].ID)
	}
	seen := map[string]bool{}
	for _, d := range ds {
		if seen[d.ID] {
			t.Fatalf("duplicate district %s", d.ID)
		}
		seen[d.ID] = true
		if d.Slug == "" {
			t.Fatalf("district %s has no slug", d.ID)
		}
	}
	if ds[3].Slug != "cordoba" {
		t.Fatalf("slug=%q; want cordoba", ds[3].Slug)
	}
	// callers get a copy
	ds[0].ID = "xx"
	if Districts()[0].ID != "02" {
		t.Fatalf("Districts leaked internal slice")
	}
}

func TestDistrictLabel(t *testing.T) {
	if l, ok := DistrictLabel("90"); !ok || l != "Tucumán" {
		t.Fatalf("DistrictLabel(90)=%q,%v", l, ok)
	}
	if _, ok := DistrictLabel("99"); ok {
		t.Fatalf("unknown district must not resolve")
	}
	if got := LabelOrID("99"); got != "99" {
		t.Fatalf("LabelOrID(99)=%q", got)
	}
	if got := LabelOrID("02"); got != "CABA" {
		t.Fatalf("LabelOrID(02)=%q", got)
	}
}

func TestYears(t *testing.T) {
	ys := Years(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if len(ys) != 15 || ys[0] != "2011" || ys[len(ys)-1] != "2025" {
		t.Fatalf("unexpected years: %v", ys)
	}
}
