package handler

import (
    "net/http"
    "testing"

    "github.com/iliyamo/cafe-table-reservation/internal/model"
)

func TestGetCafesFilter(t *testing.T) {
    env := newEnv(t, envOptions{})
    tests := []struct {
        query string
        want  []string
    }{
        {"", []string{"c1", "c2"}},
        {"?q=kopi", []string{"c1"}},
        {"?q=ASIA", []string{"c2"}},
        {"?q=nothing", []string{}},
    }
    for _, tt := range tests {
        t.Run(tt.query, func(t *testing.T) {
            rec := env.do(t, http.MethodGet, "/v1/cafes"+tt.query, "", nil)
            expectStatus(t, rec, http.StatusOK)
            got := decode[struct{ Items []model.Cafe }](t, rec).Items
            if len(got) != len(tt.want) {
                t.Fatalf("got %d cafes, want %v", len(got), tt.want)
            }
            for i, c := range got {
                if c.ID != tt.want[i] {
                    t.Fatalf("cafe[%d] = %s, want %s", i, c.ID, tt.want[i])
                }
            }
        })
    }
}

func TestGetTablesHidesMarkersAndSorts(t *testing.T) {
    env := newEnv(t, envOptions{})
    rec := env.do(t, http.MethodGet, "/v1/cafes/c1/tables", "", nil)
    expectStatus(t, rec, http.StatusOK)
    got := decode[PublicTables](t, rec)
    ids := make([]string, len(got.Items))
    for i, tb := range got.Items {
        ids[i] = tb.ID
    }
    if want := []string{"T1", "T2", "T10"}; len(ids) != 3 || ids[0] != want[0] || ids[1] != want[1] || ids[2] != want[2] {
        t.Fatalf("tables = %v, want %v", ids, want)
    }
    if got.Free != 2 || got.Total != 3 {
        t.Fatalf("free/total = %d/%d", got.Free, got.Total)
    }
}

func TestMenuCategoryAndUnknownCafe(t *testing.T) {
    env := newEnv(t, envOptions{})

    rec := env.do(t, http.MethodGet, "/v1/cafes/c1/menu?category=FOOD", "", nil)
    expectStatus(t, rec, http.StatusOK)
    items := decode[struct{ Items []model.MenuItem }](t, rec).Items
    if len(items) != 1 || items[0].ID != "m2" {
        t.Fatalf("menu = %+v", items)
    }

    expectStatus(t, env.do(t, http.MethodGet, "/v1/cafes/nope/menu", "", nil), http.StatusNotFound)
    expectStatus(t, env.do(t, http.MethodGet, "/v1/cafes/nope/tables", "", nil), http.StatusNotFound)
}
