package listing

import (
	"reflect"
	"testing"
)

type member struct {
	Name     string
	Position string
}

func memberFields(m member) []string { return []string{m.Name, m.Position} }

func TestSearch(t *testing.T) {
	items := []member{
		{Name: "Ahmad Fauzi", Position: "Ketua"},
		{Name: "Siti Aminah", Position: "Bendahara"},
		{Name: "Rizky", Position: "Sekretaris"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query keeps all", query: "  ", want: []string{"Ahmad Fauzi", "Siti Aminah", "Rizky"}},
		{name: "case insensitive", query: "SITI", want: []string{"Siti Aminah"}},
		{name: "matches any field", query: "ketua", want: []string{"Ahmad Fauzi"}},
		{name: "substring in several", query: "a", want: []string{"Ahmad Fauzi", "Siti Aminah", "Rizky"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, m := range Search(items, tt.query, memberFields) {
				got = append(got, m.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name       string
		items      []int
		page, size int
		wantPage   int
		wantTotal  int
		wantLen    int
		wantFirst  int
	}{
		{name: "first page", items: items, page: 1, size: 20, wantPage: 1, wantTotal: 3, wantLen: 20, wantFirst: 0},
		{name: "last partial page", items: items, page: 3, size: 20, wantPage: 3, wantTotal: 3, wantLen: 5, wantFirst: 40},
		{name: "beyond last clamps", items: items, page: 9, size: 20, wantPage: 3, wantTotal: 3, wantLen: 5, wantFirst: 40},
		{name: "zero page clamps", items: items, page: 0, size: 20, wantPage: 1, wantTotal: 3, wantLen: 20, wantFirst: 0},
		{name: "default size", items: items, page: 2, size: 0, wantPage: 2, wantTotal: 3, wantLen: 20, wantFirst: 20},
		{name: "empty list", items: nil, page: 4, size: 20, wantPage: 1, wantTotal: 1, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.items, tt.page, tt.size)
			if p.Page != tt.wantPage || p.TotalPages != tt.wantTotal || len(p.Items) != tt.wantLen {
				t.Fatalf("got page=%d totalPages=%d len=%d", p.Page, p.TotalPages, len(p.Items))
			}
			if tt.wantLen > 0 && p.Items[0] != tt.wantFirst {
				t.Fatalf("expected first item %d, got %d", tt.wantFirst, p.Items[0])
			}
			if p.Total != len(tt.items) {
				t.Fatalf("expected total %d, got %d", len(tt.items), p.Total)
			}
		})
	}
}

func TestPageNavigation(t *testing.T) {
	p := Paginate(make([]int, 30), 2, 10)
	if !p.HasPrev() || !p.HasNext() || p.Prev() != 1 || p.Next() != 3 {
		t.Fatalf("unexpected navigation %+v", p)
	}
}
