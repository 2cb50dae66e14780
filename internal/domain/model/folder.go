// Пакет model — доменные сущности EDI Console.
// Все сущности принадлежат backend; консоль держит только копии в кэше.
package model

import (
	"errors"
	"fmt"
)

// Folder — папка почтового ящика транзакций.
// Закрытое множество значений: inbox, received, outbox, sent, deleted.
type Folder int

const (
	FolderInbox Folder = iota
	FolderReceived
	FolderOutbox
	FolderSent
	FolderDeleted

	// FolderCount — количество папок. Используется для размеров таблиц
	// дескрипторов, индексируемых Folder.
	FolderCount
)

// ErrUnknownFolder — имя папки не входит в закрытое множество.
var ErrUnknownFolder = errors.New("неизвестная папка")

var folderNames = [FolderCount]string{
	FolderInbox:    "inbox",
	FolderReceived: "received",
	FolderOutbox:   "outbox",
	FolderSent:     "sent",
	FolderDeleted:  "deleted",
}

// Folders возвращает все папки в порядке отображения.
func Folders() []Folder {
	out := make([]Folder, 0, FolderCount)
	for f := range FolderCount {
		out = append(out, f)
	}
	return out
}

// Valid сообщает, входит ли значение в множество папок.
func (f Folder) Valid() bool {
	return f >= 0 && f < FolderCount
}

// String возвращает имя папки в формате backend.
func (f Folder) String() string {
	if !f.Valid() {
		return fmt.Sprintf("folder(%d)", int(f))
	}
	return folderNames[f]
}

// ParseFolder разбирает имя папки. Регистр значим, как и в backend.
func ParseFolder(s string) (Folder, error) {
	for i, name := range folderNames {
		if name == s {
			return Folder(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFolder, s)
}

// MarshalText реализует encoding.TextMarshaler.
func (f Folder) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFolder, int(f))
	}
	return []byte(folderNames[f]), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (f *Folder) UnmarshalText(b []byte) error {
	parsed, err := ParseFolder(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FolderSummary — папка со счётчиком транзакций (GET /folders/).
type FolderSummary struct {
	Name        Folder `json:"name"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// FolderStats — агрегированная статистика папки (GET /folders/{folder}/stats/).
type FolderStats struct {
	Folder         Folder         `json:"folder"`
	TotalCount     int            `json:"total_count"`
	ByStatus       map[string]int `json:"by_status"`
	ByDocumentType map[string]int `json:"by_document_type"`
	// RecentCount — транзакции за последние 7 дней
	RecentCount int `json:"recent_count"`
}
