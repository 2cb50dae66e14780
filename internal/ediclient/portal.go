// portal.go — ресурсы портала партнёра (/partner-portal/...).
package ediclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

const portalPrefix = "/partner-portal/"

type portalTransactionEnvelope struct {
	Transaction model.PortalTransactionDetail `json:"transaction"`
}

type uploadEnvelope struct {
	Transaction model.UploadResult `json:"transaction"`
}

type downloadsEnvelope struct {
	Files []model.DownloadableFile `json:"files"`
}

type settingsEnvelope struct {
	Settings model.PortalSettings `json:"settings"`
}

type connectionTestEnvelope struct {
	Results map[string]model.ChannelTest `json:"results"`
}

// Upload — файл для загрузки через портал.
type Upload struct {
	Filename     string
	Content      io.Reader
	DocumentType string
	PONumber     string
}

// PortalDashboard — GET partner-portal/dashboard/metrics.
func (c *Client) PortalDashboard(ctx context.Context, days int) (*model.PortalDashboard, error) {
	var res model.PortalDashboard
	if err := c.doJSON(ctx, http.MethodGet, portalPrefix+"dashboard/metrics", daysQuery(days), nil, &res); err != nil {
		return nil, fmt.Errorf("PortalDashboard: %w", err)
	}
	return &res, nil
}

// PortalTransactions — GET partner-portal/transactions.
func (c *Client) PortalTransactions(ctx context.Context, f model.PortalTransactionFilter) (*model.PortalTransactionList, error) {
	var list model.PortalTransactionList
	if err := c.doJSON(ctx, http.MethodGet, portalPrefix+"transactions", f.Values(), nil, &list); err != nil {
		return nil, fmt.Errorf("PortalTransactions: %w", err)
	}
	return &list, nil
}

// PortalTransaction — GET partner-portal/transactions/{id}.
func (c *Client) PortalTransaction(ctx context.Context, id string) (*model.PortalTransactionDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("PortalTransaction: %w", errEmptyID)
	}
	var env portalTransactionEnvelope
	if err := c.doJSON(ctx, http.MethodGet, portalPrefix+"transactions/"+escape(id), nil, nil, &env); err != nil {
		return nil, fmt.Errorf("PortalTransaction %s: %w", id, err)
	}
	return &env.Transaction, nil
}

// UploadFile — POST partner-portal/files/upload (multipart: file,
// document_type, po_number). Размер не превышает MaxUploadSize, поэтому
// тело собирается в памяти.
func (c *Client) UploadFile(ctx context.Context, up Upload) (*model.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, fmt.Errorf("UploadFile: создание части file: %w", err)
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, fmt.Errorf("UploadFile: чтение файла: %w", err)
	}
	if err := mw.WriteField("document_type", up.DocumentType); err != nil {
		return nil, fmt.Errorf("UploadFile: %w", err)
	}
	if up.PONumber != "" {
		if err := mw.WriteField("po_number", up.PONumber); err != nil {
			return nil, fmt.Errorf("UploadFile: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("UploadFile: %w", err)
	}

	var env uploadEnvelope
	if err := c.doBody(ctx, http.MethodPost, portalPrefix+"files/upload", nil, &buf, mw.FormDataContentType(), &env); err != nil {
		return nil, fmt.Errorf("UploadFile %s: %w", up.Filename, err)
	}
	return &env.Transaction, nil
}

// ListDownloads — GET partner-portal/files/download.
func (c *Client) ListDownloads(ctx context.Context) ([]model.DownloadableFile, error) {
	var env downloadsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, portalPrefix+"files/download", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("ListDownloads: %w", err)
	}
	return env.Files, nil
}

// DownloadFile — GET partner-portal/files/download/{id}, поток файла.
func (c *Client) DownloadFile(ctx context.Context, id string) (*Download, error) {
	if id == "" {
		return nil, fmt.Errorf("DownloadFile: %w", errEmptyID)
	}
	d, err := c.doStream(ctx, http.MethodGet, portalPrefix+"files/download/"+escape(id), nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("DownloadFile %s: %w", id, err)
	}
	return d, nil
}

// BulkDownload — POST partner-portal/files/download/bulk, zip-архив.
func (c *Client) BulkDownload(ctx context.Context, ids []string) (*Download, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("BulkDownload: %w", errEmptyID)
	}
	payload, err := jsonBody(map[string][]string{"transaction_ids": ids})
	if err != nil {
		return nil, fmt.Errorf("BulkDownload: %w", err)
	}
	d, err := c.doStream(ctx, http.MethodPost, portalPrefix+"files/download/bulk", nil, payload, "application/json")
	if err != nil {
		return nil, fmt.Errorf("BulkDownload: %w", err)
	}
	if d.Filename == "" {
		d.Filename = "edi_files.zip"
	}
	return d, nil
}

// PortalSettings — GET partner-portal/settings.
func (c *Client) PortalSettings(ctx context.Context) (*model.PortalSettings, error) {
	var env settingsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, portalPrefix+"settings", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("PortalSettings: %w", err)
	}
	return &env.Settings, nil
}

// UpdateContact — PUT partner-portal/settings/contact.
func (c *Client) UpdateContact(ctx context.Context, in model.ContactUpdate) error {
	if err := c.doJSON(ctx, http.MethodPut, portalPrefix+"settings/contact", nil, in, nil); err != nil {
		return fmt.Errorf("UpdateContact: %w", err)
	}
	return nil
}

// Logout — POST partner-portal/auth/logout. Backend закрывает сессию партнёра.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, portalPrefix+"auth/logout", nil, nil, nil); err != nil {
		return fmt.Errorf("Logout: %w", err)
	}
	return nil
}

// TestConnection — POST partner-portal/settings/test-connection.
// Ключ результата — канал (sftp, api).
func (c *Client) TestConnection(ctx context.Context) (map[string]model.ChannelTest, error) {
	var env connectionTestEnvelope
	if err := c.doJSON(ctx, http.MethodPost, portalPrefix+"settings/test-connection", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("TestConnection: %w", err)
	}
	return env.Results, nil
}
