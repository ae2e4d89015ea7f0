package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gaokao/internal/entity"
	"gaokao/internal/middleware"
	"gaokao/internal/service"
)

var recordTextFields = []string{
	"year", "batch", "category", "requirement",
	"college_name", "college_code", "college_info",
	"major_name", "major_code", "major_info",
	"tuition", "city",
}

var recordIntFields = []string{"min_score", "min_rank", "avg_score", "max_score"}

// AdminHandler страницы /admin/*. Доступ проверяет middleware.RequireAdmin,
// сервисы проверяют роль ещё раз по Actor.
type AdminHandler struct {
	base
	accounts *service.AccountService
	records  *service.RecordService
}

func NewAdminHandler(b base, accounts *service.AccountService, records *service.RecordService) *AdminHandler {
	return &AdminHandler{base: b, accounts: accounts, records: records}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.CountUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	records, err := h.records.CountRecords(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_dashboard.html", map[string]any{
		"Title":       "管理后台",
		"UserCount":   users,
		"RecordCount": records,
	})
}

// --- пользователи ---

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_users.html", map[string]any{
		"Title": "用户列表",
		"Users": users,
	})
}

func (h *AdminHandler) UserAddPage(w http.ResponseWriter, r *http.Request) {
	h.renderUserForm(w, r, http.StatusOK, 0, map[string]string{"role": string(entity.RoleUser)}, nil, "")
}

func (h *AdminHandler) UserAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "表单解析失败", http.StatusBadRequest)
		return
	}
	form := map[string]string{
		"username": strings.TrimSpace(r.FormValue("username")),
		"role":     r.FormValue("role"),
	}

	_, err := h.accounts.CreateUser(r.Context(), middleware.ActorFrom(r.Context()),
		form["username"], r.FormValue("password"), entity.Role(form["role"]))
	switch {
	case err == nil:
		h.flash(w, r, "已添加用户 "+form["username"])
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	case errors.Is(err, service.ErrDuplicateUsername):
		h.renderUserForm(w, r, http.StatusConflict, 0, form, nil, "用户名已存在")
	case fieldErrors(err) != nil:
		h.renderUserForm(w, r, http.StatusUnprocessableEntity, 0, form, fieldErrors(err), "")
	default:
		h.fail(w, r, err)
	}
}

func (h *AdminHandler) UserEditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r, "用户不存在")
		return
	}
	u, err := h.accounts.GetUser(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderUserForm(w, r, http.StatusOK, id, map[string]string{"username": u.Username, "role": string(u.Role)}, nil, "")
}

func (h *AdminHandler) UserEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r, "用户不存在")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "表单解析失败", http.StatusBadRequest)
		return
	}
	actor := middleware.ActorFrom(r.Context())

	u, err := h.accounts.GetUser(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	form := map[string]string{"username": u.Username, "role": r.FormValue("role")}

	err = h.accounts.UpdateUser(r.Context(), actor, id, r.FormValue("password"), entity.Role(form["role"]))
	switch {
	case err == nil:
		h.flash(w, r, "已更新用户 "+u.Username)
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	case errors.Is(err, service.ErrLastAdmin):
		h.renderUserForm(w, r, http.StatusConflict, id, form, nil, "不能取消最后一个管理员的权限")
	case fieldErrors(err) != nil:
		h.renderUserForm(w, r, http.StatusUnprocessableEntity, id, form, fieldErrors(err), "")
	default:
		h.fail(w, r, err)
	}
}

func (h *AdminHandler) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r, "用户不存在")
		return
	}
	err := h.accounts.DeleteUser(r.Context(), middleware.ActorFrom(r.Context()), id)
	switch {
	case err == nil:
		h.flash(w, r, "已删除用户 #"+strconv.Itoa(id))
	case errors.Is(err, service.ErrLastAdmin):
		h.flash(w, r, "不能删除最后一个管理员")
	case errors.Is(err, service.ErrNotFound):
		h.flash(w, r, "用户不存在")
	default:
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (h *AdminHandler) renderUserForm(w http.ResponseWriter, r *http.Request, status, id int, form, fields map[string]string, errMsg string) {
	data := map[string]any{
		"Title":   "添加用户",
		"Action":  "/admin/user/add",
		"Editing": id > 0,
		"Roles":   []entity.Role{entity.RoleUser, entity.RoleAdmin},
		"Form":    form,
		"Error":   errMsg,
	}
	if fields != nil {
		data["Fields"] = fields
	}
	if id > 0 {
		data["Title"] = "编辑用户"
		data["Action"] = "/admin/user/edit/" + strconv.Itoa(id)
	}
	h.render(w, r, status, "admin_user_form.html", data)
}

// --- записи ---

func (h *AdminHandler) Data(w http.ResponseWriter, r *http.Request) {
	kw := strings.TrimSpace(r.URL.Query().Get("search"))
	page, err := h.records.List(r.Context(), middleware.ActorFrom(r.Context()), kw, atoi(r.URL.Query().Get("page")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_data.html", map[string]any{
		"Title":  "录取数据管理",
		"Search": kw,
		"Page":   page,
	})
}

func (h *AdminHandler) DataAddPage(w http.ResponseWriter, r *http.Request) {
	h.renderRecordForm(w, r, http.StatusOK, 0, map[string]string{"year": entity.DefaultYear}, nil)
}

func (h *AdminHandler) DataAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "表单解析失败", http.StatusBadRequest)
		return
	}
	rec, form, verr := recordFromForm(r)
	if !verr.Empty() {
		h.renderRecordForm(w, r, http.StatusUnprocessableEntity, 0, form, verr.Fields)
		return
	}

	err := h.records.Create(r.Context(), middleware.ActorFrom(r.Context()), rec)
	if fields := fieldErrors(err); fields != nil {
		h.renderRecordForm(w, r, http.StatusUnprocessableEntity, 0, form, fields)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(w, r, "已新增记录 #"+strconv.Itoa(rec.ID))
	http.Redirect(w, r, "/admin/data", http.StatusSeeOther)
}

func (h *AdminHandler) DataEditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r, "数据不存在")
		return
	}
	rec, err := h.records.Get(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderRecordForm(w, r, http.StatusOK, id, recordForm(rec), nil)
}

func (h *AdminHandler) DataEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r, "数据不存在")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "表单解析失败", http.StatusBadRequest)
		return
	}
	rec, form, verr := recordFromForm(r)
	if !verr.Empty() {
		h.renderRecordForm(w, r, http.StatusUnprocessableEntity, id, form, verr.Fields)
		return
	}

	err := h.records.Update(r.Context(), middleware.ActorFrom(r.Context()), id, rec)
	if fields := fieldErrors(err); fields != nil {
		h.renderRecordForm(w, r, http.StatusUnprocessableEntity, id, form, fields)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(w, r, "已保存记录 #"+strconv.Itoa(id))
	http.Redirect(w, r, "/admin/data", http.StatusSeeOther)
}

func (h *AdminHandler) DataDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r, "数据不存在")
		return
	}
	err := h.records.Delete(r.Context(), middleware.ActorFrom(r.Context()), id)
	switch {
	case err == nil:
		h.flash(w, r, "已删除记录 #"+strconv.Itoa(id))
	case errors.Is(err, service.ErrNotFound):
		h.flash(w, r, "数据不存在")
	default:
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/data", http.StatusSeeOther)
}

func (h *AdminHandler) renderRecordForm(w http.ResponseWriter, r *http.Request, status, id int, form, fields map[string]string) {
	data := map[string]any{
		"Title":      "新增录取数据",
		"Action":     "/admin/data/add",
		"Editing":    id > 0,
		"Categories": entity.Categories,
		"Form":       form,
	}
	if fields != nil {
		data["Fields"] = fields
		data["Error"] = "请检查标红的字段"
	}
	if id > 0 {
		data["Title"] = "编辑数据"
		data["Action"] = "/admin/data/edit/" + strconv.Itoa(id)
	}
	h.render(w, r, status, "admin_data_form.html", data)
}

// recordFromForm собирает запись из формы. Пустое числовое поле это nil,
// нечисловое даёт ошибку поля.
func recordFromForm(r *http.Request) (*entity.AdmissionRecord, map[string]string, *entity.ValidationError) {
	form := make(map[string]string, len(recordTextFields)+len(recordIntFields))
	for _, f := range recordTextFields {
		form[f] = r.FormValue(f)
	}
	for _, f := range recordIntFields {
		form[f] = strings.TrimSpace(r.FormValue(f))
	}

	verr := &entity.ValidationError{}
	num := func(field string) *int {
		v := form[field]
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add(field, "请输入整数")
			return nil
		}
		return &n
	}

	rec := &entity.AdmissionRecord{
		Year:        form["year"],
		Batch:       form["batch"],
		Category:    form["category"],
		Requirement: form["requirement"],
		CollegeName: form["college_name"],
		CollegeCode: form["college_code"],
		CollegeInfo: form["college_info"],
		MajorName:   form["major_name"],
		MajorCode:   form["major_code"],
		MajorInfo:   form["major_info"],
		MinScore:    num("min_score"),
		MinRank:     num("min_rank"),
		AvgScore:    num("avg_score"),
		MaxScore:    num("max_score"),
		Tuition:     form["tuition"],
		City:        form["city"],
	}
	return rec, form, verr
}

func recordForm(rec *entity.AdmissionRecord) map[string]string {
	str := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}
	return map[string]string{
		"year":         rec.Year,
		"batch":        rec.Batch,
		"category":     rec.Category,
		"requirement":  rec.Requirement,
		"college_name": rec.CollegeName,
		"college_code": rec.CollegeCode,
		"college_info": rec.CollegeInfo,
		"major_name":   rec.MajorName,
		"major_code":   rec.MajorCode,
		"major_info":   rec.MajorInfo,
		"min_score":    str(rec.MinScore),
		"min_rank":     str(rec.MinRank),
		"avg_score":    str(rec.AvgScore),
		"max_score":    str(rec.MaxScore),
		"tuition":      rec.Tuition,
		"city":         rec.City,
	}
}
