package tcp

import "testing"

func TestParseEndpointRoundTrip(t *testing.T) {
	cases := []string{
		"[2001:db8::1]:443",
		"[::1]:8080",
		"[2001:db8::1%2]:443",
		"[]:443",
		"[2001:db8::1]",
		"[2001:db8::1%7]",
	}
	for _, s := range cases {
		ep, err := ParseEndpoint(s)
		if err != nil {
			t.Fatalf("ParseEndpoint(%q): %v", s, err)
		}
		if got := ep.String(); got != s {
			t.Errorf("ParseEndpoint(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestParseEndpointFields(t *testing.T) {
	ep, err := ParseEndpoint("[2001:db8::1%3]:443")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Port != 443 {
		t.Errorf("Port = %d, want 443", ep.Port)
	}
	if ep.Netif != 3 {
		t.Errorf("Netif = %d, want 3", ep.Netif)
	}
	if !ep.Addr.IsValid() {
		t.Error("Addr should be valid")
	}
}

func TestParseEndpointRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-an-endpoint",
		"[2001:db8::1",
		"[2001:db8::1]443",
		"[2001:db8::1]:notanumber",
		"[2001:db8::1%notanumber]",
	}
	for _, s := range cases {
		if _, err := ParseEndpoint(s); err == nil {
			t.Errorf("ParseEndpoint(%q) should have failed", s)
		}
	}
}

func TestEndpointIsUnspecified(t *testing.T) {
	ep, err := ParseEndpoint("[::]:443")
	if err != nil {
		t.Fatal(err)
	}
	if !ep.IsUnspecified() {
		t.Error("[::] should be unspecified")
	}

	ep, err = ParseEndpoint("[2001:db8::1]:443")
	if err != nil {
		t.Fatal(err)
	}
	if ep.IsUnspecified() {
		t.Error("a concrete address should not be unspecified")
	}

	var zero Endpoint
	if !zero.IsUnspecified() {
		t.Error("the zero Endpoint should be unspecified")
	}
}
