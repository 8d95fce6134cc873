package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"already normal", "https://www.mishcon.com", "https://www.mishcon.com", false},
		{"trailing slash and spaces", "  https://example.com/  ", "https://example.com", false},
		{"uppercase host and scheme", "HTTPS://Example.COM/About", "https://example.com/About", false},
		{"fragment dropped", "https://example.com/#top", "https://example.com", false},
		{"port preserved", "http://example.com:8080/", "http://example.com:8080", false},
		{"query slash kept", "https://example.com/login/?next=/", "https://example.com/login?next=/", false},
		{"missing scheme", "example.com", "", true},
		{"ftp scheme", "ftp://example.com", "", true},
		{"empty", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeTarget(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCandidate(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		ref    string
		want   string
		wantOK bool
	}{
		{"relative with trailing slash keeps case", "/About-Us/", "https://example.com/About-Us", true},
		{"absolute same host", "https://example.com/careers", "https://example.com/careers", true},
		{"same host different case", "https://EXAMPLE.com/team", "https://EXAMPLE.com/team", true},
		{"cross origin", "https://other.com/careers", "", false},
		{"subdomain is cross origin", "https://jobs.example.com/careers", "", false},
		{"fragment stripped", "/news#latest", "https://example.com/news", true},
		{"query slash kept", "/search/?path=/", "https://example.com/search?path=/", true},
		{"mailto rejected", "mailto:hr@example.com", "", false},
		{"javascript rejected", "javascript:void(0)", "", false},
		{"blank", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ResolveCandidate(base, tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCandidateNilBase(t *testing.T) {
	t.Parallel()

	_, ok := ResolveCandidate(nil, "/careers")
	assert.False(t, ok)
}

func TestCompanyNameFromURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://www.mishcon.com":           "Mishcon",
		"https://www.kingsley-napley.co.uk": "Kingsley Napley",
		"https://kingsleynapley.co.uk/":     "Kingsleynapley",
		"http://big_LAW.example.org":        "Big Law",
		"not a url":                         "",
	}
	for raw, want := range tests {
		assert.Equal(t, want, CompanyNameFromURL(raw), raw)
	}
}

func TestFirmID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "kingsley_napley", FirmID("Kingsley Napley"))
	assert.Equal(t, "mishcon_de_reya", FirmID(" Mishcon de Reya "))
}
