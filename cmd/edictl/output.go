package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

// noColor отключает ANSI-цвета (флаг --no-color).
var noColor bool

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(colorGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t model.Timestamp) string {
	return t.Format(time.DateTime)
}

func printFolders(w io.Writer, folders []model.FolderSummary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "FOLDER\tNAME\tCOUNT")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", f.Name, f.DisplayName, f.Count)
	}
	return tw.Flush()
}

func printTransactions(w io.Writer, list *model.TransactionList) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFILENAME\tPARTNER\tTYPE\tSTATUS\tMODIFIED")
	for _, tx := range list.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Filename, tx.PartnerName, tx.DocumentType, tx.Status, formatTime(tx.ModifiedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := list.Pagination
	_, err := fmt.Fprintf(w, "\nстраница %d из %d, всего %d\n", p.Page, p.TotalPages, p.TotalCount)
	return err
}

func printTransaction(w io.Writer, tx *model.Transaction) error {
	tw := newTable(w)
	rows := [][2]string{
		{"id", tx.ID},
		{"filename", tx.Filename},
		{"folder", tx.Folder.String()},
		{"partner", tx.PartnerName},
		{"document_type", tx.DocumentType},
		{"po_number", tx.PONumber},
		{"status", string(tx.Status)},
		{"created", formatTime(tx.CreatedAt)},
		{"modified", formatTime(tx.ModifiedAt)},
	}
	if tx.AcknowledgmentStatus != "" {
		rows = append(rows, [2]string{"acknowledgment", string(tx.AcknowledgmentStatus)})
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func printValidation(w io.Writer, v *model.ValidationResult) error {
	if !v.HasErrors {
		_, err := fmt.Fprintln(w, "ошибок нет")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SOURCE\tFIELD\tMESSAGE")
	for _, e := range v.Validation.Errors {
		fmt.Fprintf(tw, "validation\t%s\t%s\n", e.Field, e.Message)
	}
	for _, e := range v.AcknowledgmentErrors {
		fmt.Fprintf(tw, "ack:%s\t%s\t%s\n", e.Severity, e.Field, e.Message)
	}
	return tw.Flush()
}

func printHistory(w io.Writer, entries []model.HistoryEntry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tACTION\tFROM\tTO\tUSER")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", formatTime(e.Timestamp), e.Action, e.FromFolder, e.ToFolder, e.User)
	}
	return tw.Flush()
}
