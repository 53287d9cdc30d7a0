package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var accessEmailTmpl = template.Must(template.ParseFS(templateFS, "templates/access_email.html"))

// renderAccessEmail produces the HTML body for an access-key delivery.
func renderAccessEmail(msg AccessMessage) (string, error) {
	name := msg.UserName
	if name == "" {
		name = "Cliente"
	}
	data := struct {
		UserName string
		Password string
		AppURL   string
	}{
		UserName: name,
		Password: msg.Password,
		AppURL:   msg.AppURL,
	}

	var buf bytes.Buffer
	if err := accessEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render access email: %w", err)
	}
	return buf.String(), nil
}
