package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFolder(t *testing.T) {
	for _, f := range Folders() {
		parsed, err := ParseFolder(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	_, err := ParseFolder("archive")
	assert.ErrorIs(t, err, ErrUnknownFolder)

	_, err = ParseFolder("Inbox")
	assert.ErrorIs(t, err, ErrUnknownFolder, "регистр имени папки значим")
}

func TestFolderJSON(t *testing.T) {
	var s FolderSummary
	require.NoError(t, json.Unmarshal([]byte(`{"name":"outbox","display_name":"Outbox","count":3}`), &s))
	assert.Equal(t, FolderOutbox, s.Name)
	assert.Equal(t, 3, s.Count)

	err := json.Unmarshal([]byte(`{"name":"trash"}`), &s)
	assert.ErrorIs(t, err, ErrUnknownFolder)

	b, err := json.Marshal(struct {
		F Folder `json:"f"`
	}{FolderSent})
	require.NoError(t, err)
	assert.JSONEq(t, `{"f":"sent"}`, string(b))

	_, err = json.Marshal(struct{ F Folder }{Folder(99)})
	assert.Error(t, err)
}

func TestFoldersOrder(t *testing.T) {
	assert.Equal(t,
		[]Folder{FolderInbox, FolderReceived, FolderOutbox, FolderSent, FolderDeleted},
		Folders())
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"isoformat с зоной", `"2024-03-01T10:20:30.123456+00:00"`, time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC)},
		{"isoformat без зоны", `"2024-03-01T10:20:30"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"только дата", `"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "получено %v", ts.Time)
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"вчера"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestTransactionDecode(t *testing.T) {
	raw := `{
		"id": "7b1c0c4e-2f7a-4d5e-9d7e-1c2b3a4d5e6f",
		"filename": "po_850.edi",
		"folder": "inbox",
		"partner_name": "ACME",
		"document_type": "850",
		"status": "draft",
		"file_size": 1024,
		"created_at": "2024-03-01T10:20:30+00:00",
		"sent_at": null,
		"acknowledgment_status": null,
		"is_editable": true,
		"is_sendable": false
	}`
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &tx))
	assert.Equal(t, FolderInbox, tx.Folder)
	assert.Equal(t, StatusDraft, tx.Status)
	assert.True(t, tx.SentAt.IsZero())
	assert.Empty(t, tx.AcknowledgmentStatus)
	assert.True(t, tx.IsEditable)
}

func TestActivityLogFilterValues(t *testing.T) {
	f := ActivityLogFilter{UserType: UserTypeAdmin, Action: "login", Page: 2}
	assert.Equal(t, "action=login&page=2&user_type=admin", f.Values().Encode())

	f.Page = 1
	assert.Equal(t, "action=login&user_type=admin", f.Values().Encode(), "первая страница не передаётся")
}

func TestTransactionFilterValues(t *testing.T) {
	inbox := FolderInbox
	f := TransactionFilter{
		Folder:   &inbox,
		Partner:  "ACME",
		Search:   "PO-1",
		PageSize: 500,
	}
	v := f.Values()
	assert.Equal(t, "ACME", v.Get("partner"))
	assert.Equal(t, "PO-1", v.Get("search"))
	assert.Equal(t, "100", v.Get("page_size"), "размер страницы ограничен сверху")
	assert.Empty(t, v.Get("folder"), "папка задаётся путём")
	assert.Equal(t, "inbox", f.FolderName())
}

func TestPermissionsClone(t *testing.T) {
	p := Permissions{PermUploadFiles: true}
	c := p.Clone()
	c[PermUploadFiles] = false
	assert.True(t, p[PermUploadFiles])
	assert.True(t, ValidPermission(PermManageSettings))
	assert.False(t, ValidPermission("can_fly"))
}
