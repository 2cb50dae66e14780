package partials

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// UserURL — адрес пользователя портала или его действия.
func UserURL(userID int64, suffix ...string) string {
	return markup.Path(AdminPrefix+"/users", append([]string{strconv.FormatInt(userID, 10)}, suffix...)...)
}

// PermissionRowID — DOM-идентификатор строки матрицы прав.
func PermissionRowID(userID int64) string {
	return "perm-" + strconv.FormatInt(userID, 10)
}

// UsersTable — пользователи партнёра с матрицей прав.
func UsersTable(partnerID string, users []model.PartnerUser) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section id="users" class="panel"><h3>`)
		m.Text(i18n.T(ctx, "users.title"))
		m.Raw(`</h3>`)
		if len(users) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "users.empty"))
			m.Raw(`</p>`)
		} else {
			m.Raw(`<table class="table"><thead><tr><th>`)
			m.Text(i18n.T(ctx, "users.username"))
			m.Raw(`</th><th>`)
			m.Text(i18n.T(ctx, "users.role"))
			m.Raw(`</th><th>`)
			m.Text(i18n.T(ctx, "users.last_login"))
			m.Raw(`</th>`)
			for _, p := range model.PermissionKeys {
				m.Raw(`<th class="perm-col">`)
				m.Text(i18n.T(ctx, "perm."+string(p)))
				m.Raw(`</th>`)
			}
			m.Raw(`<th></th></tr></thead><tbody>`)
			for _, u := range users {
				m.Render(ctx, UserRow(partnerID, u, view.PermissionState{Permissions: u.Permissions}))
			}
			m.Raw(`</tbody></table>`)
		}
		m.Render(ctx, UserForm(partnerID, model.CreateUserInput{Role: model.RolePartnerUser}, nil))
		m.Raw(`</section>`)
	})
}

// UserRow — строка пользователя. После переключения права строка
// перерисовывается с подтверждёнными backend правами или с ошибкой.
func UserRow(partnerID string, u model.PartnerUser, st view.PermissionState) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<tr`)
		m.Attr("id", PermissionRowID(u.ID))
		m.Raw(`><td><strong>`)
		m.Text(u.Username)
		m.Raw(`</strong><br><span class="muted">`)
		m.Text(u.Email)
		m.Raw(`</span>`)
		if !u.IsActive {
			m.Raw(` <span class="badge">`)
			m.Text(i18n.T(ctx, "users.inactive"))
			m.Raw(`</span>`)
		}
		m.Raw(`</td><td>`)
		m.Text(i18n.T(ctx, "role."+string(u.Role)))
		m.Raw(`</td><td>`)
		m.Text(FormatTime(u.LastLogin))
		m.Raw(`</td>`)
		for _, cell := range view.PermissionRow(st.Permissions) {
			m.Raw(`<td class="perm-col">`)
			m.Render(ctx, permissionToggle(partnerID, u.ID, cell, st.Permissions))
			m.Raw(`</td>`)
		}
		m.Raw(`<td class="row-actions">`)
		m.Raw(`<button type="button" class="btn btn-ghost"`)
		m.Attr("hx-get", UserURL(u.ID, "edit")+"?"+url.Values{PartnerIDField: {partnerID}}.Encode())
		m.Attr("hx-target", "#"+DialogID)
		m.Raw(`>`)
		m.Text(i18n.T(ctx, "action.edit"))
		m.Raw(`</button><button type="button" class="btn btn-ghost"`)
		m.Attr("hx-get", UserURL(u.ID, "password"))
		m.Attr("hx-target", "#"+DialogID)
		m.Raw(`>`)
		m.Text(i18n.T(ctx, "users.reset_password"))
		m.Raw(`</button><button type="button" class="btn btn-danger"`)
		m.Attr("hx-post", UserURL(u.ID, "delete"))
		m.Attr("hx-confirm", i18n.Tf(ctx, "confirm.delete_user", u.Username))
		m.Attr("hx-target", "#"+FlashID)
		m.Raw(`>`)
		m.Text(i18n.T(ctx, "action.delete"))
		m.Raw(`</button>`)
		if st.Err != nil {
			m.Render(ctx, ErrorAlert(st.Err))
		}
		m.Raw(`</td></tr>`)
	})
}

// permissionToggle отправляет текущее состояние всех прав строки:
// сервер вычисляет желаемое значение и ничего не меняет до ответа backend.
func permissionToggle(partnerID string, userID int64, cell view.PermissionCell, current model.Permissions) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<button type="button"`)
		m.Attr("class", markup.Classes("perm-toggle", grantedClass(cell.Granted)))
		m.Attr("hx-post", UserURL(userID, "permissions", string(cell.Key)))
		m.Attr("hx-target", "#"+PermissionRowID(userID))
		m.Attr("hx-swap", "outerHTML")
		m.Attr("hx-vals", permissionVals(partnerID, current))
		m.Attr("aria-pressed", strconv.FormatBool(cell.Granted))
		m.Attr("title", i18n.T(ctx, "perm."+string(cell.Key)))
		m.Raw(`>`)
		if cell.Granted {
			m.Raw(`✓`)
		} else {
			m.Raw(`✗`)
		}
		m.Raw(`</button>`)
	})
}

func grantedClass(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}

// PartnerIDField — поле запроса переключения права с партнёром строки.
const PartnerIDField = "partner_id"

// permissionVals — JSON для hx-vals: {"partner_id":"p1","can_upload_files":"true",...}.
func permissionVals(partnerID string, p model.Permissions) string {
	out := "{" + strconv.Quote(PartnerIDField) + ":" + strconv.Quote(partnerID)
	for _, k := range model.PermissionKeys {
		out += "," + strconv.Quote(string(k)) + ":" + strconv.Quote(strconv.FormatBool(p[k]))
	}
	return out + "}"
}

// RemovedUserRow убирает строку удалённого пользователя вне основного ответа.
func RemovedUserRow(userID int64) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<template><tr`)
		m.Attr("id", PermissionRowID(userID))
		m.Raw(` hx-swap-oob="delete"></tr></template>`)
	})
}

// UserForm — форма создания пользователя партнёра.
func UserForm(partnerID string, in model.CreateUserInput, err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(err)
		m.Raw(`<form id="user-form" class="form form-inline"`)
		m.Attr("hx-post", markup.Path(AdminPrefix+"/partners", partnerID, "users"))
		m.Raw(` hx-target="#user-form" hx-swap="outerHTML"><h4>`)
		m.Text(i18n.T(ctx, "users.create"))
		m.Raw(`</h4>`)
		if err != nil {
			m.Render(ctx, ErrorAlert(err))
		}
		InputField(ctx, m, "text", "username", "users.username", in.Username, errs)
		InputField(ctx, m, "email", "email", "users.email", in.Email, errs)
		InputField(ctx, m, "password", "password", "users.password", "", errs)
		InputField(ctx, m, "text", "first_name", "users.first_name", in.FirstName, errs)
		InputField(ctx, m, "text", "last_name", "users.last_name", in.LastName, errs)
		InputField(ctx, m, "text", "phone", "users.phone", in.Phone, errs)
		roles := make([]Option, 0, len(model.UserRoles))
		for _, r := range model.UserRoles {
			roles = append(roles, Option{Value: string(r), Label: i18n.T(ctx, "role."+string(r))})
		}
		SelectField(ctx, m, "role", "users.role", string(in.Role), roles, errs)
		m.Raw(`<div class="form-actions"><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "action.create"))
		m.Raw(`</button></div></form>`)
	})
}

// PasswordDialog — сброс пароля пользователя.
func PasswordDialog(userID int64, err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(err)
		m.Raw(`<div class="dialog" role="dialog"><form class="dialog-body"`)
		m.Attr("hx-post", UserURL(userID, "password"))
		m.Attr("hx-target", "#"+DialogID)
		m.Raw(`><h3>`)
		m.Text(i18n.T(ctx, "users.reset_password"))
		m.Raw(`</h3>`)
		if err != nil {
			m.Render(ctx, ErrorAlert(err))
		}
		InputField(ctx, m, "password", "new_password", "users.new_password", "", errs)
		m.Raw(`<div class="dialog-actions"><button type="button" class="btn btn-ghost" onclick="closeDialog()">`)
		m.Text(i18n.T(ctx, "common.cancel"))
		m.Raw(`</button><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "common.save"))
		m.Raw(`</button></div></form></div>`)
	})
}

// UserEditDialog — изменение пользователя партнёра. Логин не изменяется.
func UserEditDialog(partnerID string, u model.PartnerUser, err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(err)
		m.Raw(`<div class="dialog" role="dialog"><form class="dialog-body"`)
		m.Attr("hx-post", UserURL(u.ID))
		m.Attr("hx-target", "#"+DialogID)
		m.Raw(`><h3>`)
		m.Text(i18n.T(ctx, "users.edit"))
		if u.Username != "" {
			m.Raw(`: `)
			m.Text(u.Username)
		}
		m.Raw(`</h3>`)
		if err != nil {
			m.Render(ctx, ErrorAlert(err))
		}
		m.Raw(`<input type="hidden"`)
		m.Attr("name", PartnerIDField)
		m.Attr("value", partnerID)
		m.Raw(`>`)
		InputField(ctx, m, "email", "email", "users.email", u.Email, errs)
		InputField(ctx, m, "text", "first_name", "users.first_name", u.FirstName, errs)
		InputField(ctx, m, "text", "last_name", "users.last_name", u.LastName, errs)
		InputField(ctx, m, "text", "phone", "users.phone", u.Phone, errs)
		roles := make([]Option, 0, len(model.UserRoles))
		for _, r := range model.UserRoles {
			roles = append(roles, Option{Value: string(r), Label: i18n.T(ctx, "role."+string(r))})
		}
		SelectField(ctx, m, "role", "users.role", string(u.Role), roles, errs)
		CheckboxField(ctx, m, "is_active", "users.active", u.IsActive)
		m.Raw(`<div class="dialog-actions"><button type="button" class="btn btn-ghost" onclick="closeDialog()">`)
		m.Text(i18n.T(ctx, "common.cancel"))
		m.Raw(`</button><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "common.save"))
		m.Raw(`</button></div></form></div>`)
	})
}

