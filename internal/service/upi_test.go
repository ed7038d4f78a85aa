package service

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildUPILink(t *testing.T) {
	link := BuildUPILink("spiceroute@okicici", "Spice Route", decimal.RequireFromString("517.5"), "Order CW-042")
	if !strings.HasPrefix(link, "upi://pay?") {
		t.Fatalf("unexpected scheme: %s", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	q := u.Query()
	if q.Get("pa") != "spiceroute@okicici" {
		t.Errorf("pa: got %q", q.Get("pa"))
	}
	if q.Get("pn") != "Spice Route" {
		t.Errorf("pn: got %q", q.Get("pn"))
	}
	if q.Get("am") != "517.50" {
		t.Errorf("am: got %q, want 517.50", q.Get("am"))
	}
	if q.Get("cu") != "INR" {
		t.Errorf("cu: got %q, want INR", q.Get("cu"))
	}
	if q.Get("tn") != "Order CW-042" {
		t.Errorf("tn: got %q", q.Get("tn"))
	}
}

func TestBuildUPILinkWithoutUPIID(t *testing.T) {
	if link := BuildUPILink("", "Spice Route", decimal.NewFromInt(100), "x"); link != "" {
		t.Errorf("expected empty link, got %q", link)
	}
}

func TestBuildUPILinkOmitsEmptyFields(t *testing.T) {
	link := BuildUPILink("spiceroute@okicici", "", decimal.NewFromInt(100), "")
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	q := u.Query()
	if _, ok := q["pn"]; ok {
		t.Error("pn should be omitted")
	}
	if _, ok := q["tn"]; ok {
		t.Error("tn should be omitted")
	}
}
