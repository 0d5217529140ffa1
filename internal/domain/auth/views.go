package auth

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/mwork/authweb/internal/pkg/notify"
	"github.com/mwork/authweb/internal/pkg/roles"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the data every template renders.
type page struct {
	Title         string
	Notifications []notify.Notification
	FieldMessages map[string]string

	Login        Credentials
	Register     RegistrationInput
	ServerErrors []ValidationError
	Roles        []roles.Role
}

// Selected reports whether role id is part of the submitted registration.
func (p page) Selected(id string) bool {
	for _, r := range p.Register.Roles {
		if r == id {
			return true
		}
	}
	return false
}

// views holds one parsed template set per page.
type views struct {
	pages map[string]*template.Template
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template)}
	for _, name := range []string{"home", "login", "register"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (v *views) render(w io.Writer, name string, data page) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if data.FieldMessages == nil {
		data.FieldMessages = map[string]string{}
	}
	return t.ExecuteTemplate(w, "layout", data)
}
