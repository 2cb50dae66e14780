package model

// UserRole — роль пользователя партнёра.
type UserRole string

const (
	RolePartnerAdmin    UserRole = "partner_admin"
	RolePartnerUser     UserRole = "partner_user"
	RolePartnerReadonly UserRole = "partner_readonly"
)

// UserRoles — все роли для форм.
var UserRoles = []UserRole{RolePartnerAdmin, RolePartnerUser, RolePartnerReadonly}

// Permission — ключ права пользователя партнёра.
type Permission string

const (
	PermViewTransactions Permission = "can_view_transactions"
	PermUploadFiles      Permission = "can_upload_files"
	PermDownloadFiles    Permission = "can_download_files"
	PermViewReports      Permission = "can_view_reports"
	PermManageSettings   Permission = "can_manage_settings"
)

// PermissionKeys — закрытое множество прав в порядке столбцов матрицы.
var PermissionKeys = []Permission{
	PermViewTransactions,
	PermUploadFiles,
	PermDownloadFiles,
	PermViewReports,
	PermManageSettings,
}

// ValidPermission сообщает, входит ли ключ в PermissionKeys.
func ValidPermission(p Permission) bool {
	for _, k := range PermissionKeys {
		if k == p {
			return true
		}
	}
	return false
}

// Permissions — права пользователя. Отсутствующий ключ означает false.
type Permissions map[Permission]bool

// Clone возвращает независимую копию.
func (p Permissions) Clone() Permissions {
	out := make(Permissions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// PartnerUser — пользователь портала, привязанный к партнёру.
type PartnerUser struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	FullName    string      `json:"full_name"`
	Phone       string      `json:"phone"`
	Role        UserRole    `json:"role"`
	IsActive    bool        `json:"is_active"`
	LastLogin   Timestamp   `json:"last_login"`
	CreatedAt   Timestamp   `json:"created_at"`
	Permissions Permissions `json:"permissions"`
}

// CreateUserInput — тело POST partners/{id}/users.
type CreateUserInput struct {
	Username  string   `json:"username" validate:"required,min=3,max=150"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	FirstName string   `json:"first_name" validate:"max=150"`
	LastName  string   `json:"last_name" validate:"max=150"`
	Role      UserRole `json:"role" validate:"required,oneof=partner_admin partner_user partner_readonly"`
	Phone     string   `json:"phone,omitempty" validate:"max=20"`
}

// UpdateUserInput — тело PUT users/{id}. Пустые поля не изменяются.
type UpdateUserInput struct {
	Email     string   `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string   `json:"first_name,omitempty" validate:"max=150"`
	LastName  string   `json:"last_name,omitempty" validate:"max=150"`
	Role      UserRole `json:"role,omitempty" validate:"omitempty,oneof=partner_admin partner_user partner_readonly"`
	Phone     string   `json:"phone,omitempty" validate:"max=20"`
	IsActive  *bool    `json:"is_active,omitempty"`
}
