package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gaokao/internal/entity"
	"gaokao/internal/middleware"
	"gaokao/internal/repository"
	"gaokao/internal/service"
)

type memUsers struct {
	users []entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	for _, x := range m.users {
		if x.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = len(m.users) + 1
	m.users = append(m.users, *u)
	return nil
}

func (m *memUsers) find(match func(entity.User) bool) (*entity.User, error) {
	for _, u := range m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, name string) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return u.Username == name })
}

func (m *memUsers) GetByID(_ context.Context, id int) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return u.ID == id })
}

func (m *memUsers) List(context.Context) ([]entity.User, error) {
	return append([]entity.User(nil), m.users...), nil
}

func (m *memUsers) Update(_ context.Context, id int, hash string, role entity.Role) error {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].PasswordHash, m.users[i].Role = hash, role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memUsers) Delete(_ context.Context, id int) error {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memUsers) Count(context.Context) (int64, error) { return int64(len(m.users)), nil }

func (m *memUsers) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memRecords struct {
	rows []entity.AdmissionRecord
}

func (m *memRecords) Search(_ context.Context, f repository.RecordFilter, limit int) ([]entity.AdmissionRecord, error) {
	out := make([]entity.AdmissionRecord, 0)
	for _, r := range m.rows {
		if strings.Contains(r.CollegeName, f.College) && strings.Contains(r.MajorName, f.Major) &&
			(f.Category == "" || f.Category == r.Category) && strings.Contains(r.Requirement, f.Requirement) &&
			(f.Scores == nil || f.Scores.Contains(effectiveScore(r))) {
			out = append(out, r)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func effectiveScore(r entity.AdmissionRecord) int {
	if v := r.EffectiveAvg(); v != nil {
		return *v
	}
	return 0
}

func (m *memRecords) Count(context.Context) (int64, error) { return int64(len(m.rows)), nil }

func (m *memRecords) GetByID(_ context.Context, id int) (*entity.AdmissionRecord, error) {
	for _, r := range m.rows {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRecords) List(ctx context.Context, kw string, page, size int) (entity.Page[entity.AdmissionRecord], error) {
	all, _ := m.Search(ctx, repository.RecordFilter{College: kw}, 0)
	p := entity.Page[entity.AdmissionRecord]{Page: page, PageSize: size, Total: int64(len(all))}
	if from := (page - 1) * size; from < len(all) {
		p.Items = all[from:min(from+size, len(all))]
	}
	return p, nil
}

func (m *memRecords) Create(_ context.Context, rec *entity.AdmissionRecord) error {
	rec.ID = len(m.rows) + 1
	m.rows = append(m.rows, *rec)
	return nil
}

func (m *memRecords) Update(_ context.Context, rec *entity.AdmissionRecord) error {
	for i := range m.rows {
		if m.rows[i].ID == rec.ID {
			m.rows[i] = *rec
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memRecords) Delete(_ context.Context, id int) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memRecords) by(match func(entity.AdmissionRecord) bool) []entity.AdmissionRecord {
	out := make([]entity.AdmissionRecord, 0)
	for _, r := range m.rows {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *memRecords) ByCollege(_ context.Context, name string) ([]entity.AdmissionRecord, error) {
	return m.by(func(r entity.AdmissionRecord) bool { return r.CollegeName == name }), nil
}

func (m *memRecords) ByMajor(_ context.Context, name string) ([]entity.AdmissionRecord, error) {
	return m.by(func(r entity.AdmissionRecord) bool { return r.MajorName == name }), nil
}

func (m *memRecords) Colleges(_ context.Context, kw string) ([]entity.CollegeSummary, error) {
	out := make([]entity.CollegeSummary, 0)
	seen := map[string]int{}
	for _, r := range m.rows {
		if !strings.Contains(r.CollegeName, kw) {
			continue
		}
		if i, ok := seen[r.CollegeName]; ok {
			out[i].RecordCount++
			continue
		}
		seen[r.CollegeName] = len(out)
		out = append(out, entity.CollegeSummary{Name: r.CollegeName, Code: r.CollegeCode, City: r.City, RecordCount: 1})
	}
	return out, nil
}

func (m *memRecords) Majors(_ context.Context, kw string) ([]entity.MajorSummary, error) {
	out := make([]entity.MajorSummary, 0)
	seen := map[string]int{}
	for _, r := range m.rows {
		if !strings.Contains(r.MajorName, kw) {
			continue
		}
		if i, ok := seen[r.MajorName]; ok {
			out[i].RecordCount++
			continue
		}
		seen[r.MajorName] = len(out)
		out = append(out, entity.MajorSummary{Name: r.MajorName, Code: r.MajorCode, RecordCount: 1})
	}
	return out, nil
}

type testApp struct {
	server  *httptest.Server
	client  *http.Client
	users   *memUsers
	records *memRecords
}

func intp(v int) *int { return &v }

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	users := &memUsers{}
	records := &memRecords{rows: []entity.AdmissionRecord{
		{ID: 1, CollegeName: "厦门大学", CollegeCode: "10384", City: "厦门", MajorName: "计算机科学与技术", Category: entity.CategoryPhysics, Requirement: "化", MinScore: intp(640), AvgScore: intp(645)},
		{ID: 2, CollegeName: "福州大学", CollegeCode: "10386", City: "福州", MajorName: "土木工程", Category: entity.CategoryPhysics, MinScore: intp(590), AvgScore: intp(600)},
		{ID: 3, CollegeName: "厦门大学", CollegeCode: "10384", City: "厦门", MajorName: "汉语言文学", Category: entity.CategoryHistory, MinScore: intp(600)},
	}}

	accounts := service.NewAccountService(users)
	if err := accounts.EnsureDefaults(context.Background(), "adminpw", "userpw"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dir := t.TempDir()
	guide := filepath.Join(dir, "guide.txt")
	if err := os.WriteFile(guide, []byte("先看位次\n再看分数"), 0o644); err != nil {
		t.Fatalf("write guide: %v", err)
	}

	views, err := NewRenderer()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	router := NewRouter(middleware.NewSessions("handler-test-secret"), views, Services{
		Accounts: accounts,
		Records:  service.NewRecordService(records),
		Search:   service.NewSearchService(records),
		Catalog:  service.NewCatalogService(records),
		Guides:   service.NewGuideService(guide, filepath.Join(dir, "missing.txt")),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: srv, client: client, users: users, records: records}
}

func (a *testApp) get(t *testing.T, path string) (int, string, *http.Response) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return read(t, resp)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (int, string, *http.Response) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return read(t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string, *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(b), resp
}

func (a *testApp) loginAdmin(t *testing.T) {
	t.Helper()
	status, _, resp := a.post(t, "/admin/login", url.Values{"username": {"admin"}, "password": {"adminpw"}})
	if status != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/dashboard" {
		t.Fatalf("admin login failed: %d %s", status, resp.Header.Get("Location"))
	}
}

func TestAdminSessionFollowsStoredRole(t *testing.T) {
	app := newTestApp(t)
	app.loginAdmin(t)

	if status, _, _ := app.get(t, "/admin/dashboard"); status != http.StatusOK {
		t.Fatalf("admin must reach dashboard, got %d", status)
	}

	for i := range app.users.users {
		if app.users.users[i].Username == "admin" {
			app.users.users[i].Role = entity.RoleUser
		}
	}
	status, _, resp := app.get(t, "/admin/dashboard")
	if status != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/login" {
		t.Fatalf("demoted admin must be sent to login, got %d %q", status, resp.Header.Get("Location"))
	}

	app.users.users = nil
	status, body, _ := app.get(t, "/")
	if status != http.StatusOK || strings.Contains(body, "退出") {
		t.Fatalf("deleted user must look anonymous, got %d", status)
	}
}

func TestIndexAndNotFound(t *testing.T) {
	app := newTestApp(t)

	status, body, _ := app.get(t, "/")
	if status != http.StatusOK || !strings.Contains(body, "欢迎使用福建高考志愿填报系统") {
		t.Fatalf("unexpected index: %d", status)
	}

	status, _, _ = app.get(t, "/no/such/page")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{"username": {"student1"}, "password": {"pw"}}

	status, body, _ := app.post(t, "/register", form)
	if status != http.StatusOK || !strings.Contains(body, "注册成功") {
		t.Fatalf("register failed: %d", status)
	}

	before := len(app.users.users)
	status, body, _ = app.post(t, "/register", form)
	if status != http.StatusConflict || !strings.Contains(body, "用户名已存在") {
		t.Fatalf("expected duplicate error, got %d", status)
	}
	if len(app.users.users) != before {
		t.Fatalf("duplicate register changed user count")
	}

	status, _, _ = app.post(t, "/login", url.Values{"username": {"student1"}, "password": {"wrong"}})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", status)
	}

	status, _, resp := app.post(t, "/login", form)
	if status != http.StatusSeeOther || resp.Header.Get("Location") != "/query" {
		t.Fatalf("expected redirect to /query, got %d %q", status, resp.Header.Get("Location"))
	}
	_, body, _ = app.get(t, "/query")
	if !strings.Contains(body, "student1") {
		t.Fatalf("logged in user not shown in navbar")
	}

	app.get(t, "/logout")
	_, body, _ = app.get(t, "/query")
	if strings.Contains(body, "student1") {
		t.Fatalf("user still shown after logout")
	}
}

func TestQuery(t *testing.T) {
	app := newTestApp(t)

	status, body, _ := app.get(t, "/query?college="+url.QueryEscape("厦门")+"&score=620")
	if status != http.StatusOK {
		t.Fatalf("query status %d", status)
	}
	if !strings.Contains(body, "计算机科学与技术") || !strings.Contains(body, "汉语言文学") {
		t.Fatalf("expected both 厦门大学 records")
	}
	if strings.Contains(body, "土木工程") {
		t.Fatalf("福州大学 must be filtered out")
	}
	// 620 против 645 даёт 40%, против 600 даёт 70%
	if !strings.Contains(body, "40%") || !strings.Contains(body, "70%") {
		t.Fatalf("expected probability badges in body")
	}

	_, body, _ = app.get(t, "/query?college="+url.QueryEscape("北京"))
	if !strings.Contains(body, "暂无数据") {
		t.Fatalf("expected empty-state message")
	}
}

func TestAnalysis(t *testing.T) {
	app := newTestApp(t)

	status, body, _ := app.get(t, "/analysis?score=610")
	if status != http.StatusOK || !strings.Contains(body, "probChart") {
		t.Fatalf("expected chart, got %d", status)
	}
	_, body, _ = app.get(t, "/analysis")
	if !strings.Contains(body, "请输入高考分数") {
		t.Fatalf("expected score prompt")
	}
}

func TestCatalog(t *testing.T) {
	app := newTestApp(t)

	_, body, _ := app.get(t, "/colleges?search="+url.QueryEscape("厦门"))
	if !strings.Contains(body, "厦门大学") || strings.Contains(body, "福州大学") {
		t.Fatalf("unexpected college list")
	}

	status, body, _ := app.get(t, "/college/"+url.PathEscape("厦门大学"))
	if status != http.StatusOK || !strings.Contains(body, "招生专业（2 个）") {
		t.Fatalf("unexpected college detail: %d", status)
	}

	status, _, _ = app.get(t, "/major/"+url.PathEscape("不存在的专业"))
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestGuidePages(t *testing.T) {
	app := newTestApp(t)

	_, body, _ := app.get(t, "/guide")
	if !strings.Contains(body, "先看位次<br>再看分数") {
		t.Fatalf("guide text not rendered")
	}
	status, body, _ := app.get(t, "/skill")
	if status != http.StatusOK || !strings.Contains(body, "暂无志愿技巧") {
		t.Fatalf("expected missing-tips page, got %d", status)
	}
}

func TestAdminRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	status, _, resp := app.get(t, "/admin/dashboard")
	if status != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/login" {
		t.Fatalf("anonymous must be redirected to /admin/login, got %d", status)
	}

	status, _, _ = app.post(t, "/admin/login", url.Values{"username": {"user"}, "password": {"userpw"}})
	if status != http.StatusUnauthorized {
		t.Fatalf("plain user must not pass admin login, got %d", status)
	}

	app.post(t, "/login", url.Values{"username": {"user"}, "password": {"userpw"}})
	status, _, _ = app.post(t, "/admin/data/del/1", nil)
	if status != http.StatusSeeOther || len(app.records.rows) != 3 {
		t.Fatalf("plain user must not delete records")
	}
}

func TestAdminRecords(t *testing.T) {
	app := newTestApp(t)
	app.loginAdmin(t)

	status, body, _ := app.get(t, "/admin/dashboard")
	if status != http.StatusOK || !strings.Contains(body, "共 3 条记录") || !strings.Contains(body, "共 2 个账号") {
		t.Fatalf("unexpected dashboard: %d", status)
	}

	bad := url.Values{"college_name": {""}, "major_name": {"数学"}, "min_score": {"abc"}}
	status, body, _ = app.post(t, "/admin/data/add", bad)
	if status != http.StatusUnprocessableEntity || !strings.Contains(body, "请输入整数") {
		t.Fatalf("expected validation error, got %d", status)
	}

	good := url.Values{"college_name": {"华侨大学"}, "major_name": {"数学"}, "min_score": {"580"}, "category": {entity.CategoryPhysics}}
	status, _, _ = app.post(t, "/admin/data/add", good)
	if status != http.StatusSeeOther || len(app.records.rows) != 4 {
		t.Fatalf("create failed: %d rows=%d", status, len(app.records.rows))
	}
	if app.records.rows[3].Year != entity.DefaultYear {
		t.Fatalf("year must default, got %q", app.records.rows[3].Year)
	}

	_, body, _ = app.get(t, "/admin/data")
	if !strings.Contains(body, "已新增记录") {
		t.Fatalf("expected flash message on list page")
	}

	status, body, _ = app.get(t, "/admin/data/edit/2")
	if status != http.StatusOK || !strings.Contains(body, "福州大学") {
		t.Fatalf("edit page: %d", status)
	}
	edit := url.Values{"college_name": {"福州大学"}, "major_name": {"土木工程"}, "min_score": {"595"}, "avg_score": {"590"}}
	status, _, _ = app.post(t, "/admin/data/edit/2", edit)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("min > avg must be rejected, got %d", status)
	}

	status, _, _ = app.post(t, "/admin/data/del/2", nil)
	if status != http.StatusSeeOther || len(app.records.rows) != 3 {
		t.Fatalf("delete failed: %d", status)
	}
	status, _, _ = app.get(t, "/admin/data/edit/2")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted record, got %d", status)
	}
}

func TestAdminUsers(t *testing.T) {
	app := newTestApp(t)
	app.loginAdmin(t)

	status, _, _ := app.post(t, "/admin/user/add", url.Values{"username": {"zhangsan"}, "password": {"pw"}, "role": {"admin"}})
	if status != http.StatusSeeOther {
		t.Fatalf("add user: %d", status)
	}
	status, body, _ := app.post(t, "/admin/user/add", url.Values{"username": {"zhangsan"}, "password": {"pw"}, "role": {"user"}})
	if status != http.StatusConflict || !strings.Contains(body, "用户名已存在") {
		t.Fatalf("expected duplicate, got %d", status)
	}

	_, body, _ = app.get(t, "/admin/users")
	if !strings.Contains(body, "zhangsan") {
		t.Fatalf("new user not listed")
	}

	zs, _ := app.users.GetByUsername(context.Background(), "zhangsan")
	status, _, _ = app.post(t, "/admin/user/del/"+strconv.Itoa(zs.ID), nil)
	if status != http.StatusSeeOther {
		t.Fatalf("delete user: %d", status)
	}

	admin, _ := app.users.GetByUsername(context.Background(), "admin")
	app.post(t, "/admin/user/del/"+strconv.Itoa(admin.ID), nil)
	if _, err := app.users.GetByUsername(context.Background(), "admin"); err != nil {
		t.Fatalf("last admin must survive delete")
	}
	_, body, _ = app.get(t, "/admin/users")
	if !strings.Contains(body, "不能删除最后一个管理员") {
		t.Fatalf("expected last-admin flash")
	}

	status, body, _ = app.post(t, "/admin/user/edit/"+strconv.Itoa(admin.ID), url.Values{"role": {"user"}})
	if status != http.StatusConflict || !strings.Contains(body, "最后一个管理员") {
		t.Fatalf("demoting last admin must fail, got %d", status)
	}
}
