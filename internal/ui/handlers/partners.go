// partners.go — партнёры: список, карточка, пользователи портала,
// матрица прав и SFTP-конфигурация.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/pages"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/view"
)

// closeDialogEvent — событие HX-Trigger, закрывающее модальный диалог.
const closeDialogEvent = "closeDialog"

// PartnersHandler — обработчик раздела партнёров.
type PartnersHandler struct {
	base
	svc *service.AdminService
}

// NewPartnersHandler создаёт обработчик раздела партнёров.
func NewPartnersHandler(svc *service.AdminService, loginURL string, logger *slog.Logger) *PartnersHandler {
	return &PartnersHandler{
		base: newBase(loginURL, logger, "ui.partners"),
		svc:  svc,
	}
}

// HandleList обрабатывает GET /admin/partners.
func (h *PartnersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	criteria := view.Criteria(q)
	f := model.PartnerFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: model.PartnerStatus(q.Get("status")),
		Page:   view.ResolvePage(q.Get(view.CriteriaParam), q),
	}

	res, err := h.svc.Partners(r.Context(), api, f)
	total := 1
	if res.Data != nil {
		total = res.Data.Pagination.Pages
	}
	h.page(w, r, err, pages.Partners(pages.PartnersData{
		List:     res.Data,
		Filter:   f,
		Criteria: criteria,
		Pager:    view.NewPager(f.Page, total, criteria),
		Err:      err,
	}))
}

// HandleDetail обрабатывает GET /admin/partners/{id}?name=&days=.
func (h *PartnersHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	days := parseDays(r)
	detail, err := h.svc.PartnerDetail(r.Context(), api, id, days)
	h.page(w, r, err, pages.Partner(pages.PartnerData{
		PartnerID: id,
		Name:      r.URL.Query().Get("name"),
		Days:      days,
		Detail:    detail,
		Err:       err,
	}))
}

// HandleCreateUser обрабатывает POST /admin/partners/{id}/users.
// Успех перерисовывает таблицу пользователей, ошибка — только форму.
func (h *PartnersHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	pid := chi.URLParam(r, "id")
	in := model.CreateUserInput{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Role:      model.UserRole(r.PostFormValue("role")),
		Phone:     strings.TrimSpace(r.PostFormValue("phone")),
	}
	if _, err := h.svc.CreateUser(ctx, api, pid, in); err != nil {
		if h.expired(w, r, err) {
			return
		}
		in.Password = ""
		h.render(w, r, h.logFailure(r, err), partials.UserForm(pid, in, err))
		return
	}

	users, err := h.svc.PartnerUsers(ctx, api, pid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("HX-Retarget", "#users")
	w.Header().Set("HX-Reswap", "outerHTML")
	h.render(w, r, http.StatusOK, templ.Join(
		partials.UsersTable(pid, users.Data),
		flashOOB(i18n.Tf(ctx, "flash.user_created", in.Username)),
	))
}

// HandleEditDialog обрабатывает GET /admin/users/{id}/edit?partner_id=.
func (h *PartnersHandler) HandleEditDialog(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	pid := r.URL.Query().Get(partials.PartnerIDField)
	user, err := h.findUser(r, api, pid, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, partials.UserEditDialog(pid, user, nil))
}

// HandleUpdateUser обрабатывает POST /admin/users/{id}.
// Успех перерисовывает строку пользователя и закрывает диалог,
// ошибка возвращает диалог с введёнными значениями.
func (h *PartnersHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	pid := r.PostFormValue(partials.PartnerIDField)
	active := r.PostFormValue("is_active") != ""
	in := model.UpdateUserInput{
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Role:      model.UserRole(r.PostFormValue("role")),
		Phone:     strings.TrimSpace(r.PostFormValue("phone")),
		IsActive:  &active,
	}

	updated, err := h.svc.UpdateUser(ctx, api, uid, in)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		status := h.logFailure(r, err)
		user, _ := h.findUser(r, api, pid, uid)
		user.ID = uid
		user.Email, user.FirstName, user.LastName = in.Email, in.FirstName, in.LastName
		user.Role, user.Phone, user.IsActive = in.Role, in.Phone, active
		h.render(w, r, status, partials.UserEditDialog(pid, user, err))
		return
	}

	user := *updated
	if user.ID == 0 {
		if user, err = h.findUser(r, api, pid, uid); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	w.Header().Set("HX-Retarget", "#"+partials.PermissionRowID(uid))
	w.Header().Set("HX-Reswap", "outerHTML")
	w.Header().Set(hxTrigger, closeDialogEvent)
	h.render(w, r, http.StatusOK, templ.Join(
		partials.UserRow(pid, user, view.PermissionState{Permissions: user.Permissions}),
		flashOOB(i18n.Tf(ctx, "flash.user_updated", user.Username)),
	))
}

// findUser ищет пользователя в списке пользователей партнёра.
func (h *PartnersHandler) findUser(r *http.Request, api service.AdminAPI, pid string, uid int64) (model.PartnerUser, error) {
	users, err := h.svc.PartnerUsers(r.Context(), api, pid)
	if err != nil {
		return model.PartnerUser{}, err
	}
	for _, u := range users.Data {
		if u.ID == uid {
			return u, nil
		}
	}
	return model.PartnerUser{}, service.ErrNotFound
}

// HandlePasswordDialog обрабатывает GET /admin/users/{id}/password.
func (h *PartnersHandler) HandlePasswordDialog(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, partials.PasswordDialog(uid, nil))
}

// HandleResetPassword обрабатывает POST /admin/users/{id}/password.
func (h *PartnersHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), api, uid, r.PostFormValue("new_password")); err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.render(w, r, h.logFailure(r, err), partials.PasswordDialog(uid, err))
		return
	}
	w.Header().Set("HX-Retarget", "#"+partials.FlashID)
	h.flash(w, r, i18n.T(r.Context(), "flash.password_reset"), closeDialogEvent)
}

// HandleDeleteUser обрабатывает POST /admin/users/{id}/delete.
func (h *PartnersHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(r.Context(), api, uid); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, templ.Join(
		partials.Alert(partials.AlertSuccess, i18n.T(r.Context(), "flash.user_deleted")),
		partials.RemovedUserRow(uid),
	))
}

// HandleTogglePermission обрабатывает POST /admin/users/{id}/permissions/{perm}.
// Форма несёт текущее состояние всех прав строки; строка перерисовывается
// с правами, подтверждёнными backend, или с прежними правами и ошибкой.
func (h *PartnersHandler) HandleTogglePermission(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, service.ErrValidation)
		return
	}

	ctx := r.Context()
	perm := model.Permission(chi.URLParam(r, "perm"))
	pid := r.PostForm.Get(partials.PartnerIDField)
	current := make(model.Permissions, len(model.PermissionKeys))
	for _, k := range model.PermissionKeys {
		current[k] = r.PostForm.Get(string(k)) == "true"
	}

	confirmed, err := h.svc.TogglePermission(ctx, api, uid, perm, current)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		h.logFailure(r, err)
	}
	state := view.ApplyPermissionToggle(current, confirmed, err)

	user, lerr := h.findUser(r, api, pid, uid)
	if lerr != nil {
		user = model.PartnerUser{ID: uid}
	}
	h.render(w, r, http.StatusOK, partials.UserRow(pid, user, state))
}

// HandleSaveSFTP обрабатывает POST /admin/partners/{id}/sftp.
func (h *PartnersHandler) HandleSaveSFTP(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	pid := chi.URLParam(r, "id")
	cfg := sftpConfig(r)
	saved, err := h.svc.SaveSFTPConfig(r.Context(), api, pid, cfg)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		cfg.Password = ""
		h.render(w, r, h.logFailure(r, err), partials.SFTPForm(partials.SFTPFormData{
			PartnerID: pid,
			HasConfig: h.hasSFTP(r, api, pid),
			Config:    cfg,
			Err:       err,
		}))
		return
	}

	if saved != nil {
		cfg = *saved
	}
	cfg.Password = ""
	h.render(w, r, http.StatusOK, partials.SFTPForm(partials.SFTPFormData{
		PartnerID: pid,
		HasConfig: true,
		Config:    cfg,
		Saved:     true,
	}))
}

// hasSFTP сообщает, есть ли у партнёра сохранённая конфигурация.
func (h *PartnersHandler) hasSFTP(r *http.Request, api service.AdminAPI, pid string) bool {
	res, err := h.svc.SFTPConfig(r.Context(), api, pid)
	return err == nil && res.Data != nil && res.Data.HasConfig
}

// HandleDeleteSFTP обрабатывает POST /admin/partners/{id}/sftp/delete.
func (h *PartnersHandler) HandleDeleteSFTP(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	pid := chi.URLParam(r, "id")
	if err := h.svc.DeleteSFTPConfig(r.Context(), api, pid); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, templ.Join(
		partials.SFTPForm(partials.SFTPFormData{PartnerID: pid}),
		flashOOB(i18n.T(r.Context(), "flash.sftp_deleted")),
	))
}

// HandleTestSFTP обрабатывает POST /admin/partners/{id}/sftp/test.
func (h *PartnersHandler) HandleTestSFTP(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.TestSFTPConnection(r.Context(), api, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, partials.ConnectionResult(res))
}

// userID читает идентификатор пользователя из пути.
func (h *PartnersHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || uid <= 0 {
		h.fail(w, r, service.ErrNotFound)
		return 0, false
	}
	return uid, true
}

// sftpConfig читает поля формы SFTP. Нечисловые значения становятся нулём,
// их отклоняет проверка конфигурации.
func sftpConfig(r *http.Request) model.SFTPConfig {
	atoi := func(name string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue(name)))
		return n
	}
	return model.SFTPConfig{
		Host:                strings.TrimSpace(r.PostFormValue("host")),
		Port:                atoi("port"),
		Username:            strings.TrimSpace(r.PostFormValue("username")),
		AuthMethod:          r.PostFormValue("auth_method"),
		Password:            r.PostFormValue("password"),
		PrivateKeyPath:      strings.TrimSpace(r.PostFormValue("private_key_path")),
		InboundDirectory:    strings.TrimSpace(r.PostFormValue("inbound_directory")),
		OutboundDirectory:   strings.TrimSpace(r.PostFormValue("outbound_directory")),
		ArchiveDirectory:    strings.TrimSpace(r.PostFormValue("archive_directory")),
		InboundFilePattern:  strings.TrimSpace(r.PostFormValue("inbound_file_pattern")),
		OutboundFilePattern: strings.TrimSpace(r.PostFormValue("outbound_file_pattern")),
		Timeout:             atoi("timeout"),
		PassiveMode:         r.PostFormValue("passive_mode") != "",
		PollEnabled:         r.PostFormValue("poll_enabled") != "",
		PollInterval:        atoi("poll_interval"),
	}
}

// flashOOB — сообщение об успехе для #flash вне основного ответа.
func flashOOB(message string) templ.Component {
	return partials.FlashOOB(partials.AlertSuccess, message)
}
