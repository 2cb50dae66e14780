package view

import "github.com/bigkaa/edi-console/internal/domain/model"

// ActionName — действие над транзакцией в карточке и на детальной странице.
type ActionName string

const (
	ActionView            ActionName = "view"
	ActionEdit            ActionName = "edit"
	ActionProcess         ActionName = "process"
	ActionSend            ActionName = "send"
	ActionMove            ActionName = "move"
	ActionDelete          ActionName = "delete"
	ActionPermanentDelete ActionName = "permanent_delete"
)

// Action — кнопка действия.
type Action struct {
	Name ActionName
	// Enabled == false — кнопка видна, но неактивна
	Enabled bool
	// Confirm — перед выполнением запрашивается подтверждение (hx-confirm)
	Confirm bool
	// HintKey — ключ i18n подсказки для неактивной кнопки
	HintKey string
}

// HasErrors сообщает, есть ли ошибки в результате проверки.
// nil (проверка не загружена или недоступна) ошибок не означает.
func HasErrors(v *model.ValidationResult) bool {
	return v != nil && v.HasErrors
}

// CardActions возвращает действия для транзакции.
// При has_errors обработка и отправка неактивны.
func CardActions(tx *model.Transaction, v *model.ValidationResult) []Action {
	if tx == nil {
		return nil
	}
	blocked := HasErrors(v)
	hint := ""
	if blocked {
		hint = "action.blocked_by_errors"
	}

	actions := []Action{{Name: ActionView, Enabled: true}}
	if tx.IsEditable {
		actions = append(actions, Action{Name: ActionEdit, Enabled: true})
	}
	if tx.Folder == model.FolderInbox || tx.Folder == model.FolderOutbox {
		actions = append(actions, Action{Name: ActionProcess, Enabled: !blocked, HintKey: hint})
	}
	if tx.IsSendable {
		actions = append(actions, Action{Name: ActionSend, Enabled: !blocked, HintKey: hint})
	}
	actions = append(actions, Action{Name: ActionMove, Enabled: true})
	if tx.Folder == model.FolderDeleted {
		actions = append(actions, Action{Name: ActionPermanentDelete, Enabled: true, Confirm: true})
	} else {
		actions = append(actions, Action{Name: ActionDelete, Enabled: true, Confirm: true})
	}
	return actions
}

// FindAction возвращает действие по имени.
func FindAction(actions []Action, name ActionName) (Action, bool) {
	for _, a := range actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Tab — вкладка детальной страницы.
type Tab string

const (
	TabErrors         Tab = "errors"
	TabOverview       Tab = "overview"
	TabRaw            Tab = "raw"
	TabHistory        Tab = "history"
	TabAcknowledgment Tab = "acknowledgment"
)

// DetailTabs возвращает вкладки детальной страницы в порядке отображения.
func DetailTabs(tx *model.Transaction, v *model.ValidationResult) []Tab {
	tabs := make([]Tab, 0, 5)
	if HasErrors(v) {
		tabs = append(tabs, TabErrors)
	}
	tabs = append(tabs, TabOverview, TabRaw, TabHistory)
	if tx != nil && (tx.Folder == model.FolderSent || tx.Folder == model.FolderReceived) {
		tabs = append(tabs, TabAcknowledgment)
	}
	return tabs
}

// ActiveTab возвращает запрошенную вкладку, если она есть, иначе первую.
func ActiveTab(tabs []Tab, requested string) Tab {
	for _, t := range tabs {
		if string(t) == requested {
			return t
		}
	}
	if len(tabs) == 0 {
		return TabOverview
	}
	return tabs[0]
}
