// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

// Field is one labelled line of a contact summary.
type Field struct {
	Label string
	Value string
}

// ContactEmailData contains the data for both contact emails: the copy
// sent to the firm and the acknowledgement sent to the visitor.
type ContactEmailData struct {
	FirmName   string
	Heading    string
	Greeting   string   // optional, e.g. "Dear Amina,"
	Intro      []string // paragraphs before the summary
	Fields     []Field  // labelled submission fields
	Closing    []string // paragraphs after the summary
	FooterNote string   // small print
	Lang       string   // html lang attribute
}

// ContactEmail generates both plain text and HTML versions of a contact email.
func ContactEmail(data ContactEmailData) (textBody, htmlBody string, err error) {
	var tb strings.Builder
	if data.Greeting != "" {
		tb.WriteString(data.Greeting)
		tb.WriteString("\n\n")
	}
	for _, p := range data.Intro {
		tb.WriteString(p)
		tb.WriteString("\n\n")
	}
	for _, f := range data.Fields {
		tb.WriteString(f.Label)
		tb.WriteString(": ")
		tb.WriteString(f.Value)
		tb.WriteString("\n")
	}
	if len(data.Fields) > 0 {
		tb.WriteString("\n")
	}
	for _, p := range data.Closing {
		tb.WriteString(p)
		tb.WriteString("\n\n")
	}
	if data.FooterNote != "" {
		tb.WriteString(data.FooterNote)
	}
	textBody = strings.TrimRight(tb.String(), "\n")

	if data.Lang == "" {
		data.Lang = "en"
	}
	var buf bytes.Buffer
	if err := contactHTMLTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return textBody, buf.String(), nil
}

var contactHTMLTmpl = template.Must(template.New("contact").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: Georgia, 'Times New Roman', serif; background-color: #f5f1ea;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f5f1ea;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 28px 32px 20px 32px; text-align: center; background-color: #1e3a5f; border-radius: 8px 8px 0 0;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #ffffff;">{{.FirmName}}</h1>
            </td>
          </tr>
          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px 0; font-size: 19px; font-weight: 600; color: #1e3a5f;">{{.Heading}}</h2>
              {{- if .Greeting}}
              <p style="margin: 0 0 16px 0; font-size: 15px; line-height: 1.6; color: #3f3f46;">{{.Greeting}}</p>
              {{- end}}
              {{- range .Intro}}
              <p style="margin: 0 0 16px 0; font-size: 15px; line-height: 1.6; color: #3f3f46;">{{.}}</p>
              {{- end}}
              {{- if .Fields}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="margin: 8px 0 24px 0; border: 1px solid #e7e2d8; border-radius: 6px;">
                {{- range .Fields}}
                <tr>
                  <td valign="top" style="padding: 10px 12px; width: 110px; font-size: 13px; font-weight: 600; color: #c26a2b; border-bottom: 1px solid #f0ece4;">{{.Label}}</td>
                  <td style="padding: 10px 12px; font-size: 14px; line-height: 1.5; color: #27272a; border-bottom: 1px solid #f0ece4;">{{range $i, $l := lines .Value}}{{if $i}}<br>{{end}}{{$l}}{{end}}</td>
                </tr>
                {{- end}}
              </table>
              {{- end}}
              {{- range .Closing}}
              <p style="margin: 0 0 16px 0; font-size: 15px; line-height: 1.6; color: #3f3f46;">{{.}}</p>
              {{- end}}
            </td>
          </tr>
          {{- if .FooterNote}}
          <!-- Footer -->
          <tr>
            <td style="padding: 20px 32px; background-color: #fafaf7; border-top: 1px solid #e7e2d8; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #a1a1aa; text-align: center;">{{.FooterNote}}</p>
            </td>
          </tr>
          {{- end}}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
