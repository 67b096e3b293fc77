package vcard

import (
	"encoding/base64"
	"strings"

	"card-service/internal/model"
)

// photoTypes maps MIME types to the TYPE parameter vCard 3.0 expects
var photoTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
	"image/webp": "WEBP",
}

// Escape applies RFC 2426 text escaping: backslash, comma, semicolon and
// newline.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ',':
			b.WriteString(`\,`)
		case ';':
			b.WriteString(`\;`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			// bare CR is dropped; CRLF collapses to the escaped newline
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Build renders a VERSION:3.0 vCard for a card. When photo bytes are supplied
// they are embedded base64; otherwise the photo URL is referenced. company may
// be nil for cards whose tenant join is broken; the theme data still renders.
func Build(card *model.EmployeeCard, company *model.Company, photo []byte, photoMIME string) string {
	var b strings.Builder
	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\r\n")
	}

	writeLine("BEGIN:VCARD")
	writeLine("VERSION:3.0")

	name := card.Theme.Name
	writeLine("FN:" + Escape(name))
	writeLine("N:" + structuredName(name))

	if company != nil && company.Name != "" {
		writeLine("ORG:" + Escape(company.Name))
	}
	if card.Theme.Title != "" {
		writeLine("TITLE:" + Escape(card.Theme.Title))
	}

	writeLine("TEL;TYPE=CELL:" + Escape(card.Phone))
	if card.Phone2 != "" {
		writeLine("TEL;TYPE=WORK:" + Escape(card.Phone2))
	}
	writeLine("EMAIL;TYPE=INTERNET:" + Escape(card.Email))
	if card.Website != "" {
		writeLine("URL:" + Escape(card.Website))
	}

	if len(photo) > 0 {
		vtype, ok := photoTypes[strings.ToLower(photoMIME)]
		if !ok {
			vtype = "JPEG"
		}
		writeLine("PHOTO;ENCODING=b;TYPE=" + vtype + ":" + base64.StdEncoding.EncodeToString(photo))
	} else if card.PhotoURL != "" {
		writeLine("PHOTO;VALUE=URI:" + Escape(card.PhotoURL))
	}

	writeLine("END:VCARD")
	return b.String()
}

// structuredName splits a display name into the N property's Family;Given
// form, treating the last space-delimited token as the family name.
func structuredName(name string) string {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return Escape(name) + ";;;;"
	}
	family := name[idx+1:]
	given := name[:idx]
	return Escape(family) + ";" + Escape(given) + ";;;"
}
