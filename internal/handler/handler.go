package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"gaokao/internal/entity"
	"gaokao/internal/middleware"
	"gaokao/internal/probability"
	"gaokao/internal/service"
	"gaokao/internal/templates"
)

var pages = []string{
	"index.html",
	"register.html",
	"login.html",
	"query.html",
	"analysis.html",
	"guide.html",
	"colleges.html",
	"majors.html",
	"college.html",
	"major.html",
	"error.html",
	"admin_dashboard.html",
	"admin_users.html",
	"admin_user_form.html",
	"admin_data.html",
	"admin_data_form.html",
}

var funcMap = template.FuncMap{
	"badge":     probability.BadgeClass,
	"probLabel": probability.Label,
	"roleLabel": func(r entity.Role) string { return r.Label() },
	// num пустая строка для неизвестного значения, 0 выводится как 0
	"num": func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	},
}

// Renderer набор страниц, каждая в своём каркасе.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	rd := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templates.FS, templates.Layout, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		rd.pages[name] = tmpl
	}
	return rd, nil
}

// Render сначала рендерит в буфер, чтобы ошибка шаблона не оставила полстраницы.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) error {
	tmpl, ok := rd.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// base общее для всех обработчиков: сессии и шаблоны.
type base struct {
	sessions *middleware.Sessions
	views    *Renderer
}

func (b *base) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Actor"] = middleware.ActorFrom(r.Context())
	if _, ok := data["Form"]; !ok {
		data["Form"] = map[string]string{}
	}
	if _, ok := data["Fields"]; !ok {
		data["Fields"] = map[string]string{}
	}
	if b.sessions != nil {
		data["Flashes"] = b.sessions.Flashes(w, r)
	}

	if err := b.views.Render(w, status, page, data); err != nil {
		zap.L().Error("render failed",
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.String("page", page),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (b *base) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	b.render(w, r, http.StatusNotFound, "error.html", map[string]any{
		"Title":   "未找到",
		"Message": msg,
	})
}

// fail общая реакция на ошибку сервиса.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		b.notFound(w, r, "数据不存在")
	case errors.Is(err, service.ErrForbidden):
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	default:
		zap.L().Error("request failed",
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		b.render(w, r, http.StatusInternalServerError, "error.html", map[string]any{
			"Title":   "服务器错误",
			"Message": "服务器内部错误，请稍后再试",
		})
	}
}

func (b *base) flash(w http.ResponseWriter, r *http.Request, msg string) {
	if b.sessions != nil {
		b.sessions.Flash(w, r, msg)
	}
}

// fieldErrors поля из ошибки валидации, nil если это другая ошибка.
func fieldErrors(err error) map[string]string {
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}
