// Package web はログインページとアカウントページのHTMLを描画する。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/hitoshi/accountgate/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages はページテンプレートを保持する。
type Pages struct {
	login   *template.Template
	account *template.Template
}

type loginData struct {
	Title    string
	LoginURL string
}

type accountData struct {
	Title     string
	User      *model.User
	LogoutURL string
}

// NewPages はテンプレートを読み込んでPagesを生成する。
func NewPages() (*Pages, error) {
	login, err := template.ParseFS(templateFS, "templates/layout.html", "templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse login template: %w", err)
	}
	account, err := template.ParseFS(templateFS, "templates/layout.html", "templates/account.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse account template: %w", err)
	}
	return &Pages{login: login, account: account}, nil
}

// RenderLogin はログインページを書き込む。
func (p *Pages) RenderLogin(w http.ResponseWriter, loginURL string) error {
	return render(w, p.login, loginData{
		Title:    "Community Bank",
		LoginURL: loginURL,
	})
}

// RenderAccount は認証済みユーザーのアカウントページを書き込む。
func (p *Pages) RenderAccount(w http.ResponseWriter, user *model.User, logoutURL string) error {
	return render(w, p.account, accountData{
		Title:     "Community Bank - Account",
		User:      user,
		LogoutURL: logoutURL,
	})
}

// render はテンプレートをバッファに描画してから書き込む。
// 描画途中で失敗した場合に不完全なHTMLを返さないため。
func render(w http.ResponseWriter, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
