package mailer

import (
	"strings"
	"testing"
)

func TestContactEmail(t *testing.T) {
	text, html, err := ContactEmail(ContactEmailData{
		FirmName: "Sang & Associates",
		Heading:  "New contact form submission",
		Intro:    []string{"New contact form submission received:"},
		Fields: []Field{
			{Label: "Name", Value: "Amina <script>"},
			{Label: "Message", Value: "line one\nline two"},
		},
		FooterNote: "This message was sent from your website contact form.",
	})
	if err != nil {
		t.Fatalf("ContactEmail() error = %v", err)
	}

	wantText := "New contact form submission received:\n\nName: Amina <script>\nMessage: line one\nline two\n\nThis message was sent from your website contact form."
	if text != wantText {
		t.Errorf("text body =\n%q\nwant\n%q", text, wantText)
	}

	if strings.Contains(html, "<script>") {
		t.Error("HTML body should escape field values")
	}
	if !strings.Contains(html, "line one<br>line two") {
		t.Error("HTML body should keep message line breaks")
	}
	if !strings.Contains(html, `lang="en"`) {
		t.Error("HTML lang should default to en")
	}
}

func TestContactEmailGreeting(t *testing.T) {
	text, html, err := ContactEmail(ContactEmailData{
		FirmName: "Firm",
		Heading:  "Asante",
		Greeting: "Mpendwa Juma,",
		Closing:  []string{"Wako,", "Firm"},
		Lang:     "sw",
	})
	if err != nil {
		t.Fatalf("ContactEmail() error = %v", err)
	}
	if !strings.HasPrefix(text, "Mpendwa Juma,\n\n") {
		t.Errorf("text body should start with greeting, got %q", text)
	}
	if !strings.Contains(html, `lang="sw"`) {
		t.Error("HTML lang attribute not set")
	}
}
