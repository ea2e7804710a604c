package stooq

import "testing"

const directoryHTML = `
<html><body>
<table class="fth1">
<thead><tr><th>Symbol</th><th>Name</th><th>Last</th></tr></thead>
<tbody>
<tr><td>AAPL.US</td><td>Apple</td><td>189.98</td></tr>
<tr><td>nvda.us</td><td>Nvidia</td><td>950.02</td></tr>
<tr><td></td><td>Broken Row</td><td></td></tr>
<tr><td>TSLA.US</td><td></td><td>177.46</td></tr>
<tr><td colspan="3">ad banner</td></tr>
<tr><td>IBM.US</td><td>IBM</td><td>170.06</td></tr>
</tbody>
</table>
</body></html>`

func TestParseListings(t *testing.T) {
	listings, err := parseListings(directoryHTML)
	if err != nil {
		t.Fatalf("parseListings() failed: %v", err)
	}

	// Rows with a missing symbol or name are skipped
	if len(listings) != 3 {
		t.Fatalf("got %d listings, want 3: %+v", len(listings), listings)
	}

	want := []Listing{
		{Symbol: "AAPL", Name: "Apple"},
		{Symbol: "NVDA", Name: "Nvidia"},
		{Symbol: "IBM", Name: "IBM"},
	}
	for i, w := range want {
		if listings[i] != w {
			t.Errorf("listings[%d] = %+v, want %+v", i, listings[i], w)
		}
	}
}

func TestParseListingsEmptyDocument(t *testing.T) {
	listings, err := parseListings("<html><body><p>maintenance</p></body></html>")
	if err != nil {
		t.Fatalf("parseListings() failed: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings from empty document, want 0", len(listings))
	}
}
