package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	SetPasswordSubject   = "Set Your Password - HMS"
	ResetPasswordSubject = "Reset Password - HMS"
)

var (
	setPasswordTmpl = template.Must(template.New("set_password").Parse(`<h2>Welcome to HMS{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Click the link below to set your password:</p>
<a href="{{.Link}}" style="color:blue;">{{.Link}}</a>
<p>This link is valid for {{.Validity}}.</p>
`))

	resetPasswordTmpl = template.Must(template.New("reset_password").Parse(`<h3>Password Reset</h3>
<p>Click below to reset:</p>
<a href="{{.Link}}">{{.Link}}</a>
<p>This link is valid for {{.Validity}}.</p>
`))
)

// LinkEmail is the data shared by the token link templates.
type LinkEmail struct {
	Name     string
	Link     string
	Validity string
}

// SetPasswordEmail renders the welcome message carrying the setup link.
func SetPasswordEmail(data LinkEmail) (string, error) {
	return render(setPasswordTmpl, data)
}

// ResetPasswordEmail renders the password reset message.
func ResetPasswordEmail(data LinkEmail) (string, error) {
	return render(resetPasswordTmpl, data)
}

func render(t *template.Template, data LinkEmail) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
