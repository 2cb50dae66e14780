// transactions.go — операции над транзакциями почтового ящика.
package ediclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

// errEmptyID — вызов без идентификатора не отправляется в backend.
var errEmptyID = errors.New("пустой идентификатор")

type transactionEnvelope struct {
	Transaction model.Transaction `json:"transaction"`
}

type historyEnvelope struct {
	History []model.HistoryEntry `json:"history"`
}

// ListTransactions возвращает страницу транзакций.
// GET /transactions/ или /transactions/{folder}/, если в фильтре задана папка.
func (c *Client) ListTransactions(ctx context.Context, f model.TransactionFilter) (*model.TransactionList, error) {
	path := "/transactions/"
	if f.Folder != nil {
		if !f.Folder.Valid() {
			return nil, fmt.Errorf("ListTransactions: %w: %d", model.ErrUnknownFolder, int(*f.Folder))
		}
		path = "/transactions/" + f.Folder.String() + "/"
	}

	var list model.TransactionList
	if err := c.doJSON(ctx, http.MethodGet, path, f.Values(), nil, &list); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return &list, nil
}

// SearchTransactions — GET /search/, параметры как у списка.
func (c *Client) SearchTransactions(ctx context.Context, f model.TransactionFilter) (*model.TransactionList, error) {
	q := f.Values()
	if f.Folder != nil {
		q.Set("folder", f.Folder.String())
	}

	var list model.TransactionList
	if err := c.doJSON(ctx, http.MethodGet, "/search/", q, nil, &list); err != nil {
		return nil, fmt.Errorf("SearchTransactions: %w", err)
	}
	return &list, nil
}

// GetTransaction — GET /transaction/{id}/.
func (c *Client) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("GetTransaction: %w", errEmptyID)
	}
	var env transactionEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/transaction/"+escape(id)+"/", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("GetTransaction %s: %w", id, err)
	}
	return &env.Transaction, nil
}

// CreateTransaction — POST /transaction/create/.
func (c *Client) CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.MutationResult, error) {
	var res model.MutationResult
	if err := c.doJSON(ctx, http.MethodPost, "/transaction/create/", nil, in, &res); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	return &res, nil
}

// UpdateTransaction — PUT /transaction/{id}/update/.
func (c *Client) UpdateTransaction(ctx context.Context, id string, in model.TransactionInput) (*model.MutationResult, error) {
	return c.mutate(ctx, "UpdateTransaction", http.MethodPut, id, "update", in)
}

// DeleteTransaction — мягкое удаление (перенос в deleted).
// DELETE /transaction/{id}/delete/.
func (c *Client) DeleteTransaction(ctx context.Context, id string) (*model.MutationResult, error) {
	return c.mutate(ctx, "DeleteTransaction", http.MethodDelete, id, "delete", nil)
}

// MoveTransaction — POST /transaction/{id}/move/ с target_folder.
func (c *Client) MoveTransaction(ctx context.Context, id string, target model.Folder) (*model.MutationResult, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("MoveTransaction: %w: %d", model.ErrUnknownFolder, int(target))
	}
	body := map[string]string{"target_folder": target.String()}
	return c.mutate(ctx, "MoveTransaction", http.MethodPost, id, "move", body)
}

// SendTransaction — POST /transaction/{id}/send/.
func (c *Client) SendTransaction(ctx context.Context, id string) (*model.MutationResult, error) {
	return c.mutate(ctx, "SendTransaction", http.MethodPost, id, "send", nil)
}

// ProcessTransaction — POST /transaction/{id}/process/.
// inbox → received, outbox → sent. Невалидный документ: 400 с validation_errors
// (см. ValidationErrors).
func (c *Client) ProcessTransaction(ctx context.Context, id string) (*model.MutationResult, error) {
	return c.mutate(ctx, "ProcessTransaction", http.MethodPost, id, "process", nil)
}

// PermanentDelete — необратимое удаление. POST /transaction/{id}/permanent-delete/.
func (c *Client) PermanentDelete(ctx context.Context, id string) (*model.PermanentDeleteResult, error) {
	if id == "" {
		return nil, fmt.Errorf("PermanentDelete: %w", errEmptyID)
	}
	var res model.PermanentDeleteResult
	if err := c.doJSON(ctx, http.MethodPost, "/transaction/"+escape(id)+"/permanent-delete/", nil, nil, &res); err != nil {
		return nil, fmt.Errorf("PermanentDelete %s: %w", id, err)
	}
	return &res, nil
}

// ValidateTransaction — GET /transaction/{id}/validate/.
func (c *Client) ValidateTransaction(ctx context.Context, id string) (*model.ValidationResult, error) {
	if id == "" {
		return nil, fmt.Errorf("ValidateTransaction: %w", errEmptyID)
	}
	var res model.ValidationResult
	if err := c.doJSON(ctx, http.MethodGet, "/transaction/"+escape(id)+"/validate/", nil, nil, &res); err != nil {
		return nil, fmt.Errorf("ValidateTransaction %s: %w", id, err)
	}
	return &res, nil
}

// TransactionHistory — GET /transaction/{id}/history/.
func (c *Client) TransactionHistory(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("TransactionHistory: %w", errEmptyID)
	}
	var env historyEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/transaction/"+escape(id)+"/history/", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("TransactionHistory %s: %w", id, err)
	}
	return env.History, nil
}

// TransactionRaw — GET /transaction/{id}/raw/.
func (c *Client) TransactionRaw(ctx context.Context, id string) (*model.RawContent, error) {
	if id == "" {
		return nil, fmt.Errorf("TransactionRaw: %w", errEmptyID)
	}
	var raw model.RawContent
	if err := c.doJSON(ctx, http.MethodGet, "/transaction/"+escape(id)+"/raw/", nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("TransactionRaw %s: %w", id, err)
	}
	return &raw, nil
}

// mutate — общий путь /transaction/{id}/{action}/ с ответом MutationResult.
func (c *Client) mutate(ctx context.Context, op, method, id, action string, body any) (*model.MutationResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, errEmptyID)
	}
	var res model.MutationResult
	if err := c.doJSON(ctx, method, "/transaction/"+escape(id)+"/"+action+"/", nil, body, &res); err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, id, err)
	}
	return &res, nil
}
