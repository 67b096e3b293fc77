package vcard

import (
	"encoding/base64"
	"strings"
	"testing"

	"card-service/internal/model"

	"github.com/stretchr/testify/require"
)

func testCard() *model.EmployeeCard {
	return &model.EmployeeCard{
		PublicSlug: "maria-silva",
		Phone:      "+258841234567",
		Email:      "maria.silva@cfm.co.mz",
		Website:    "https://cfm.co.mz",
		PhotoURL:   "https://cards.example.com/uploads/abc/1.jpg",
		Theme: model.CardTheme{
			Name:  "Maria Silva",
			Title: "Operations Manager",
		},
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text untouched",
			input:    "Maria Silva",
			expected: "Maria Silva",
		},
		{
			name:     "comma",
			input:    "Silva, Maria",
			expected: `Silva\, Maria`,
		},
		{
			name:     "semicolon",
			input:    "a;b",
			expected: `a\;b`,
		},
		{
			name:     "backslash",
			input:    `a\b`,
			expected: `a\\b`,
		},
		{
			name:     "newline",
			input:    "line1\nline2",
			expected: `line1\nline2`,
		},
		{
			name:     "crlf collapses",
			input:    "line1\r\nline2",
			expected: `line1\nline2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Escape(tt.input))
		})
	}
}

func TestBuildBasicFields(t *testing.T) {
	company := &model.Company{Name: "CFM"}
	out := Build(testCard(), company, nil, "")

	require.True(t, strings.HasPrefix(out, "BEGIN:VCARD\r\n"))
	require.True(t, strings.HasSuffix(out, "END:VCARD\r\n"))
	require.Contains(t, out, "VERSION:3.0\r\n")
	require.Contains(t, out, "FN:Maria Silva\r\n")
	require.Contains(t, out, "N:Silva;Maria;;;\r\n")
	require.Contains(t, out, "ORG:CFM\r\n")
	require.Contains(t, out, "TITLE:Operations Manager\r\n")
	require.Contains(t, out, "TEL;TYPE=CELL:+258841234567\r\n")
	require.Contains(t, out, "EMAIL;TYPE=INTERNET:maria.silva@cfm.co.mz\r\n")
	require.Contains(t, out, "URL:https://cfm.co.mz\r\n")
}

func TestBuildEmbedsPhotoWhenFetchable(t *testing.T) {
	photo := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	out := Build(testCard(), nil, photo, "image/jpeg")

	require.Contains(t, out, "PHOTO;ENCODING=b;TYPE=JPEG:"+base64.StdEncoding.EncodeToString(photo))
	require.NotContains(t, out, "PHOTO;VALUE=URI")
}

func TestBuildFallsBackToPhotoURI(t *testing.T) {
	out := Build(testCard(), nil, nil, "")
	require.Contains(t, out, "PHOTO;VALUE=URI:https://cards.example.com/uploads/abc/1.jpg\r\n")
	require.NotContains(t, out, "ENCODING=b")
}

func TestBuildWithoutCompany(t *testing.T) {
	// Broken tenant join: theme data still renders, ORG is omitted
	out := Build(testCard(), nil, nil, "")
	require.NotContains(t, out, "ORG:")
	require.Contains(t, out, "FN:Maria Silva\r\n")
}

func TestBuildEscapesFieldValues(t *testing.T) {
	card := testCard()
	card.Theme.Name = "Silva; Maria, Jr."
	card.Theme.Title = "R&D;Ops"
	out := Build(card, nil, nil, "")

	require.Contains(t, out, `FN:Silva\; Maria\, Jr.`+"\r\n")
	require.Contains(t, out, `TITLE:R&D\;Ops`+"\r\n")
}

func TestStructuredNameSingleToken(t *testing.T) {
	card := testCard()
	card.Theme.Name = "Madonna"
	out := Build(card, nil, nil, "")
	require.Contains(t, out, "N:Madonna;;;;\r\n")
}
