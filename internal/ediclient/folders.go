// folders.go — папки почтового ящика и справочники (партнёры, типы документов).
package ediclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

type foldersEnvelope struct {
	Folders []model.FolderSummary `json:"folders"`
}

type partnersEnvelope struct {
	Partners []model.Partner `json:"partners"`
}

type documentTypesEnvelope struct {
	DocumentTypes []model.DocumentType `json:"document_types"`
}

// ListFolders — GET /folders/, папки со счётчиками.
func (c *Client) ListFolders(ctx context.Context) ([]model.FolderSummary, error) {
	var env foldersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/folders/", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("ListFolders: %w", err)
	}
	return env.Folders, nil
}

// FolderStats — GET /folders/{folder}/stats/.
func (c *Client) FolderStats(ctx context.Context, folder model.Folder) (*model.FolderStats, error) {
	if !folder.Valid() {
		return nil, fmt.Errorf("FolderStats: %w: %d", model.ErrUnknownFolder, int(folder))
	}
	var stats model.FolderStats
	if err := c.doJSON(ctx, http.MethodGet, "/folders/"+folder.String()+"/stats/", nil, nil, &stats); err != nil {
		return nil, fmt.Errorf("FolderStats %s: %w", folder, err)
	}
	return &stats, nil
}

// ListPartners — GET /partners/, справочник для фильтров и форм.
func (c *Client) ListPartners(ctx context.Context) ([]model.Partner, error) {
	var env partnersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/partners/", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("ListPartners: %w", err)
	}
	return env.Partners, nil
}

// ListDocumentTypes — GET /document-types/.
func (c *Client) ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error) {
	var env documentTypesEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/document-types/", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("ListDocumentTypes: %w", err)
	}
	return env.DocumentTypes, nil
}
