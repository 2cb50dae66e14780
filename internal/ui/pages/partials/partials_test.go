package partials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/view"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestEmptyFolder_CreateOnlyWhereAllowed(t *testing.T) {
	for _, f := range model.Folders() {
		html := render(t, EmptyFolder(f))
		hasCreate := strings.Contains(html, "/admin/transactions/new?folder="+f.String())
		assert.Equal(t, view.CanCreate(f), hasCreate, f.String())
	}
}

func TestCardActions_DisabledWithHint(t *testing.T) {
	tx := &model.Transaction{ID: "42", Folder: model.FolderOutbox, IsSendable: true}
	html := render(t, CardActions(tx, &model.ValidationResult{
		HasErrors:  true,
		Validation: model.Validation{Errors: []model.FieldError{{Field: "ISA06", Message: "пусто"}}},
	}))

	assert.Contains(t, html, `hx-post="/admin/transactions/42/process"`)
	assert.Contains(t, html, `hx-post="/admin/transactions/42/send"`)
	assert.Equal(t, 2, strings.Count(html, " disabled"), "обработка и отправка заблокированы")
	assert.Contains(t, html, `title="action.blocked_by_errors"`)
	assert.Contains(t, html, "/admin/transactions/42?tab=errors")
}

func TestCardActions_ConfirmDestructive(t *testing.T) {
	html := render(t, CardActions(&model.Transaction{ID: "7", Folder: model.FolderDeleted}, nil))
	assert.Contains(t, html, `hx-post="/admin/transactions/7/permanent-delete"`)
	assert.Contains(t, html, `hx-confirm="confirm.permanent_delete"`)
	assert.NotContains(t, html, "/admin/transactions/7/delete\"")
	assert.NotContains(t, html, " disabled")
}

func TestMoveDialog_ExcludesCurrentFolder(t *testing.T) {
	html := render(t, MoveDialog(&model.Transaction{ID: "1", Folder: model.FolderSent}))
	assert.NotContains(t, html, `value="sent"`)
	for _, f := range view.MoveTargets(model.FolderSent) {
		assert.Contains(t, html, fmt.Sprintf(`value="%s"`, f))
	}
	assert.NotContains(t, html, "permanent")
}

func TestTransactionCard_EscapesContent(t *testing.T) {
	html := render(t, TransactionCard(model.Transaction{
		ID:          "abc",
		Filename:    "<script>x</script>.edi",
		Folder:      model.FolderInbox,
		PartnerName: "ACME & Co",
	}))
	assert.NotContains(t, html, "<script>x")
	assert.Contains(t, html, "ACME &amp; Co")
	assert.Contains(t, html, `hx-get="/admin/transactions/abc/actions"`)
}

func TestErrorMessage(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"forbidden", fmt.Errorf("op: %w", ediclient.ErrForbidden), "error.forbidden"},
		{"timeout", ediclient.ErrTimeout, "error.timeout"},
		{"rate limit", ediclient.ErrRateLimited, "error.rate_limited"},
		{"transport", ediclient.ErrTransport, "error.transport"},
		{"validation", &service.FormError{}, "error.validation"},
		{"not allowed", service.ErrNotAllowed, "error.not_allowed"},
		{"not found", &ediclient.APIError{Status: 404, Message: "Not found"}, "error.not_found"},
		{"conflict", &ediclient.APIError{Status: 409}, "error.conflict"},
		{"backend message", &ediclient.APIError{Status: 500, Message: "Database unavailable"}, "Database unavailable"},
		{"unknown", errors.New("x"), "error.internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(ctx, tt.err))
		})
	}
	assert.Empty(t, ErrorMessage(ctx, nil))
}

func TestFieldError_OnlyMatchingField(t *testing.T) {
	errs := []model.FieldError{{Field: "email", Message: "Некорректный email"}}
	assert.Contains(t, render(t, FieldError(errs, "email")), "Некорректный email")
	assert.Empty(t, render(t, FieldError(errs, "username")))
}

func TestUserRow_PermissionToggleCarriesState(t *testing.T) {
	u := model.PartnerUser{ID: 5, Username: "buyer", Permissions: model.Permissions{model.PermUploadFiles: true}}
	html := render(t, UserRow("p1", u, view.PermissionState{Permissions: u.Permissions}))

	assert.Contains(t, html, `id="perm-5"`)
	assert.Contains(t, html, `hx-post="/admin/users/5/permissions/can_upload_files"`)
	assert.Contains(t, html, "&#34;can_upload_files&#34;:&#34;true&#34;")
	assert.Contains(t, html, "&#34;can_view_reports&#34;:&#34;false&#34;")
	assert.Contains(t, html, "&#34;partner_id&#34;:&#34;p1&#34;")
	assert.Contains(t, html, `hx-get="/admin/users/5/edit?partner_id=p1"`)

	failed := render(t, UserRow("p1", u, view.PermissionState{Permissions: u.Permissions, Err: ediclient.ErrForbidden}))
	assert.Contains(t, failed, "error.forbidden")
}

func TestSFTPForm_NeverRendersPassword(t *testing.T) {
	html := render(t, SFTPForm(SFTPFormData{
		PartnerID: "p1",
		HasConfig: true,
		Config:    model.SFTPConfig{Host: "sftp.example.com", Port: 2222, Password: "secret"},
	}))
	assert.NotContains(t, html, "secret")
	assert.Contains(t, html, `value="2222"`)
	assert.Contains(t, html, "/admin/partners/p1/sftp/test")
}

func TestSortedCounts(t *testing.T) {
	got := SortedCounts(map[string]int{"850": 3, "810": 7, "856": 3})
	require.Len(t, got, 3)
	assert.Equal(t, Count{Key: "810", Value: 7}, got[0])
	assert.Equal(t, "850", got[1].Key)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "10.0 MB", FormatSize(10<<20))
}
