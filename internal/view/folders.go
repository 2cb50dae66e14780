// Пакет view — правила представления: что показывать и какие действия
// доступны. Функции пакета чистые и не обращаются к backend.
package view

import "github.com/bigkaa/edi-console/internal/domain/model"

// Descriptor — отображение папки в навигации и сетке.
type Descriptor struct {
	// LabelKey — ключ i18n названия папки
	LabelKey string
	// Icon — имя иконки из спрайта /static/icons.svg
	Icon string
	// Color — цветовая схема бейджа (класс Tailwind без префикса)
	Color string
	// CanCreate — в папке можно создать транзакцию
	CanCreate bool
}

// folderDescriptors индексируется model.Folder. Размер массива равен
// model.FolderCount, поэтому новая папка без дескриптора ломает тест полноты.
var folderDescriptors = [model.FolderCount]Descriptor{
	model.FolderInbox: {
		LabelKey: "folder.inbox", Icon: "inbox", Color: "blue", CanCreate: true,
	},
	model.FolderReceived: {
		LabelKey: "folder.received", Icon: "download", Color: "green",
	},
	model.FolderOutbox: {
		LabelKey: "folder.outbox", Icon: "upload", Color: "amber", CanCreate: true,
	},
	model.FolderSent: {
		LabelKey: "folder.sent", Icon: "send", Color: "indigo",
	},
	model.FolderDeleted: {
		LabelKey: "folder.deleted", Icon: "trash", Color: "gray",
	},
}

// FolderDescriptor возвращает дескриптор папки.
// Для значения вне множества возвращается нейтральный дескриптор.
func FolderDescriptor(f model.Folder) Descriptor {
	if !f.Valid() {
		return Descriptor{LabelKey: "folder.unknown", Icon: "folder", Color: "gray"}
	}
	return folderDescriptors[f]
}

// CanCreate сообщает, предлагается ли создание транзакции в папке.
// Одинаково для сетки и для пустого состояния.
func CanCreate(f model.Folder) bool {
	return f.Valid() && folderDescriptors[f].CanCreate
}

// MoveTargets — папки, доступные в диалоге перемещения: все, кроме текущей.
// Окончательное удаление в диалог не входит.
func MoveTargets(current model.Folder) []model.Folder {
	out := make([]model.Folder, 0, model.FolderCount-1)
	for _, f := range model.Folders() {
		if f != current {
			out = append(out, f)
		}
	}
	return out
}
