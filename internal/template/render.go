// Package template renders the html bodies of outgoing account emails.
//
// 템플릿 파일: emails/*.html (빌드 시 embed)
//
//	password_reset.html: {{.ProjectName}}, {{.Email}}, {{.Link}}, {{.ValidFor}}
//	new_account.html:    {{.ProjectName}}, {{.Username}}, {{.Link}}
package template

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed emails/*.html
var emailsFS embed.FS

var emails = template.Must(template.ParseFS(emailsFS, "emails/*.html"))

// Email - 렌더링된 제목과 본문
type Email struct {
	Subject string
	HTML    string
}

type PasswordResetData struct {
	ProjectName string
	Email       string
	Link        string
	ValidFor    time.Duration
}

type NewAccountData struct {
	ProjectName string
	Username    string
	Link        string
}

func RenderPasswordReset(data PasswordResetData) (Email, error) {
	body, err := render("password_reset.html", data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("%s - Password recovery for user %s", data.ProjectName, data.Email),
		HTML:    body,
	}, nil
}

func RenderNewAccount(data NewAccountData) (Email, error) {
	body, err := render("new_account.html", data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("%s - New account for user %s", data.ProjectName, data.Username),
		HTML:    body,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emails.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
