package handler

import (
	"net/http"

	"gaokao/internal/middleware"
	"gaokao/internal/service"
)

type Services struct {
	Accounts *service.AccountService
	Records  *service.RecordService
	Search   *service.SearchService
	Catalog  *service.CatalogService
	Guides   *service.GuideService
}

// NewRouter собирает все маршруты. Всё под /admin/ кроме входа требует администратора.
func NewRouter(sessions *middleware.Sessions, views *Renderer, svc Services) http.Handler {
	b := base{sessions: sessions, views: views}

	index := NewIndexHandler(b)
	login := NewLoginHandler(b, svc.Accounts)
	registration := NewRegistrationHandler(b, svc.Accounts)
	query := NewQueryHandler(b, svc.Search)
	catalog := NewCatalogHandler(b, svc.Catalog)
	guide := NewGuideHandler(b, svc.Guides)
	admin := NewAdminHandler(b, svc.Accounts, svc.Records)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", index.Index)
	mux.HandleFunc("GET /register", registration.RegisterPage)
	mux.HandleFunc("POST /register", registration.Register)
	mux.HandleFunc("GET /login", login.LoginPage)
	mux.HandleFunc("POST /login", login.Login)
	mux.HandleFunc("GET /logout", LogoutHandler(sessions))

	mux.HandleFunc("GET /query", query.Query)
	mux.HandleFunc("POST /query", query.Query)
	mux.HandleFunc("GET /analysis", query.Analysis)
	mux.HandleFunc("GET /guide", guide.Guide)
	mux.HandleFunc("GET /skill", guide.Skill)

	mux.HandleFunc("GET /colleges", catalog.Colleges)
	mux.HandleFunc("GET /majors", catalog.Majors)
	mux.HandleFunc("GET /college/{name...}", catalog.College)
	mux.HandleFunc("GET /major/{name...}", catalog.Major)

	mux.HandleFunc("GET /admin/login", login.AdminLoginPage)
	mux.HandleFunc("POST /admin/login", login.AdminLogin)

	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}
	mux.Handle("GET /admin/{$}", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	}))
	mux.Handle("GET /admin/dashboard", adminOnly(admin.Dashboard))
	mux.Handle("GET /admin/users", adminOnly(admin.Users))
	mux.Handle("GET /admin/user/add", adminOnly(admin.UserAddPage))
	mux.Handle("POST /admin/user/add", adminOnly(admin.UserAdd))
	mux.Handle("GET /admin/user/edit/{id}", adminOnly(admin.UserEditPage))
	mux.Handle("POST /admin/user/edit/{id}", adminOnly(admin.UserEdit))
	mux.Handle("POST /admin/user/del/{id}", adminOnly(admin.UserDelete))
	mux.Handle("GET /admin/data", adminOnly(admin.Data))
	mux.Handle("GET /admin/data/add", adminOnly(admin.DataAddPage))
	mux.Handle("POST /admin/data/add", adminOnly(admin.DataAdd))
	mux.Handle("GET /admin/data/edit/{id}", adminOnly(admin.DataEditPage))
	mux.Handle("POST /admin/data/edit/{id}", adminOnly(admin.DataEdit))
	mux.Handle("POST /admin/data/del/{id}", adminOnly(admin.DataDelete))

	mux.HandleFunc("/", index.NotFound)

	return middleware.Chain(mux,
		middleware.WithActor(sessions, svc.Accounts),
		middleware.RequestLogger,
		middleware.Recover,
	)
}
