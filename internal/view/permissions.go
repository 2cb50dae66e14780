package view

import "github.com/bigkaa/edi-console/internal/domain/model"

// PermissionState — состояние строки матрицы прав после переключения.
type PermissionState struct {
	Permissions model.Permissions
	// Err — ошибка для пользователя; состояние при этом не изменено
	Err error
}

// DesiredPermission — значение, которое запрашивается при переключении.
func DesiredPermission(current model.Permissions, perm model.Permission) bool {
	return !current[perm]
}

// ApplyPermissionToggle вычисляет состояние после ответа backend.
// Состояние меняется только по подтверждённым сервером правам;
// при ошибке остаётся прежним.
func ApplyPermissionToggle(current, confirmed model.Permissions, err error) PermissionState {
	if err != nil {
		return PermissionState{Permissions: current.Clone(), Err: err}
	}
	out := current.Clone()
	for k, v := range confirmed {
		out[k] = v
	}
	return PermissionState{Permissions: out}
}

// PermissionCell — ячейка матрицы прав.
type PermissionCell struct {
	Key     model.Permission
	Granted bool
}

// PermissionRow возвращает ячейки в порядке столбцов матрицы.
func PermissionRow(p model.Permissions) []PermissionCell {
	row := make([]PermissionCell, 0, len(model.PermissionKeys))
	for _, k := range model.PermissionKeys {
		row = append(row, PermissionCell{Key: k, Granted: p[k]})
	}
	return row
}
