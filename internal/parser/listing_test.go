package parser

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func searchPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="search_resultsRows">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<a href="https://store.steampowered.com/app/%d/?snr=1_7" class="search_result_row ds_collapse_flag">
            <div class="search_name"><span class="title">Game %d</span></div></a>`, 100+i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func hubPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="salepreviewwidgets_SaleItemBrowserRow_y9MSd">
            <div class="salepreviewwidgets_StoreSaleWidgetHalfLeft_2Va3O"><a href="/app/%d/">
            <img class="salepreviewwidgets_CapsuleImage_cODQh" alt="Hub Game %d"></a></div></div>`, 200+i, i)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestParseListingSearchRows(t *testing.T) {
	entries, err := ParseListing([]byte(searchPage(12)), SearchRows, nil)
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if want := fmt.Sprintf("Game %d", i+1); e.Title != want {
			t.Errorf("entry %d title = %q, want %q", i, e.Title, want)
		}
	}
	if entries[0].Link != "https://store.steampowered.com/app/101/?snr=1_7" {
		t.Errorf("unexpected link %q", entries[0].Link)
	}
}

func TestParseListingContentHubRows(t *testing.T) {
	base, _ := url.Parse("https://store.steampowered.com/category/rpg/")
	entries, err := ParseListing([]byte(hubPage(3)), ContentHubRows, base)
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	want := []ListingEntry{
		{Title: "Hub Game 1", Link: "https://store.steampowered.com/app/201/"},
		{Title: "Hub Game 2", Link: "https://store.steampowered.com/app/202/"},
		{Title: "Hub Game 3", Link: "https://store.steampowered.com/app/203/"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListingSkipsIncompleteRows(t *testing.T) {
	body := `<html><body>
        <a class="search_result_row" href="/app/1/"><span class="title">Kept</span></a>
        <a class="search_result_row"><span class="title">No link</span></a>
        <a class="search_result_row" href="/app/3/"><span class="title"> </span></a>
    </body></html>`
	entries, err := ParseListing([]byte(body), SearchRows, nil)
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Kept" {
		t.Errorf("expected only the complete row, got %+v", entries)
	}
}
