package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
)

// options — общие флаги всех команд.
type options struct {
	backend string
	session string
	csrf    string
	timeout time.Duration
	json    bool
	verbose bool

	out    io.Writer
	errOut io.Writer
	client *ediclient.Client
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &options{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "edictl",
		Short:         "Консольный клиент EDI backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.connect()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.StringVar(&o.backend, "backend", envDefault("EC_BACKEND_URL", ""), "origin EDI backend (EC_BACKEND_URL)")
	f.StringVar(&o.session, "session", envDefault("EC_SESSION_ID", ""), "значение cookie sessionid (EC_SESSION_ID)")
	f.StringVar(&o.csrf, "csrf", envDefault("EC_CSRF_TOKEN", ""), "значение cookie csrftoken (EC_CSRF_TOKEN)")
	f.DurationVar(&o.timeout, "timeout", 30*time.Second, "таймаут запроса")
	f.BoolVar(&o.json, "json", false, "вывод в JSON")
	f.BoolVar(&o.verbose, "verbose", false, "журнал запросов в stderr")
	f.BoolVar(&noColor, "no-color", false, "без ANSI-цветов")

	root.AddCommand(
		o.foldersCmd(),
		o.listCmd(),
		o.showCmd(),
		o.moveCmd(),
		o.mutationCmd("process", "Обработать транзакцию", (*ediclient.Client).ProcessTransaction),
		o.mutationCmd("send", "Отправить транзакцию партнёру", (*ediclient.Client).SendTransaction),
		o.mutationCmd("delete", "Перенести транзакцию в deleted", (*ediclient.Client).DeleteTransaction),
		o.validateCmd(),
		o.historyCmd(),
		o.logsCmd(),
	)
	return root
}

// connect создаёт клиента backend из флагов.
func (o *options) connect() error {
	if o.backend == "" {
		return errors.New("не задан адрес backend: --backend или EC_BACKEND_URL")
	}
	if o.session == "" {
		return errors.New("не задана сессия: --session или EC_SESSION_ID")
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(o.errOut, &slog.HandlerOptions{Level: level}))

	factory, err := ediclient.NewFactory(ediclient.Options{
		BaseURL: o.backend,
		Timeout: o.timeout,
	}, logger)
	if err != nil {
		return err
	}
	o.client = factory.Client(ediclient.Session{SessionID: o.session, CSRFToken: o.csrf})
	return nil
}

// render выводит v в JSON или через текстовый формат.
func (o *options) render(v any, text func(io.Writer) error) error {
	if o.json {
		return printJSON(o.out, v)
	}
	return text(o.out)
}

func (o *options) foldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "Папки со счётчиками",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := o.client.ListFolders(cmd.Context())
			if err != nil {
				return err
			}
			return o.render(folders, func(w io.Writer) error { return printFolders(w, folders) })
		},
	}
}

func (o *options) listCmd() *cobra.Command {
	var f model.TransactionFilter
	var status string

	cmd := &cobra.Command{
		Use:   "list <folder>",
		Short: "Транзакции папки",
		Long: `Транзакции папки с фильтрами.

Примеры:
  edictl list inbox
  edictl list outbox --status failed --search acme --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := model.ParseFolder(args[0])
			if err != nil {
				return err
			}
			f.Folder = &folder
			f.Status = model.Status(status)
			list, err := o.client.ListTransactions(cmd.Context(), f)
			if err != nil {
				return err
			}
			return o.render(list, func(w io.Writer) error { return printTransactions(w, list) })
		},
	}
	cmd.Flags().StringVar(&f.Partner, "partner", "", "партнёр")
	cmd.Flags().StringVar(&f.DocumentType, "type", "", "тип документа")
	cmd.Flags().StringVar(&status, "status", "", "статус")
	cmd.Flags().StringVar(&f.Search, "search", "", "поиск по имени файла и номеру PO")
	cmd.Flags().StringVar(&f.DateFrom, "from", "", "дата с (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.DateTo, "to", "", "дата по (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.Page, "page", 1, "страница")
	return cmd
}

func (o *options) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Карточка транзакции",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := o.client.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return o.render(tx, func(w io.Writer) error { return printTransaction(w, tx) })
		},
	}
}

func (o *options) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <folder>",
		Short: "Переместить транзакцию в другую папку",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := model.ParseFolder(args[1])
			if err != nil {
				return err
			}
			res, err := o.client.MoveTransaction(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			return o.mutationDone(res, fmt.Sprintf("Транзакция %s перемещена в %s", args[0], target))
		},
	}
}

type mutationFunc func(c *ediclient.Client, ctx context.Context, id string) (*model.MutationResult, error)

func (o *options) mutationCmd(use, short string, fn mutationFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fn(o.client, cmd.Context(), args[0])
			if err != nil {
				printFieldErrors(o.errOut, err)
				return err
			}
			return o.mutationDone(res, fmt.Sprintf("%s: %s", use, args[0]))
		},
	}
}

func (o *options) mutationDone(res *model.MutationResult, fallback string) error {
	if o.json {
		return printJSON(o.out, res)
	}
	msg := res.Message
	if msg == "" {
		msg = fallback
	}
	printSuccess(o.out, "%s", msg)
	return nil
}

// printFieldErrors выводит ошибки полей из ответа backend.
func printFieldErrors(w io.Writer, err error) {
	for _, fe := range ediclient.ValidationErrors(err) {
		fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
	}
}

func (o *options) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>",
		Short: "Результат проверки транзакции",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := o.client.ValidateTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return o.render(v, func(w io.Writer) error { return printValidation(w, v) })
		},
	}
}

func (o *options) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "История действий с транзакцией",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := o.client.TransactionHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return o.render(entries, func(w io.Writer) error { return printHistory(w, entries) })
		},
	}
}

func (o *options) logsCmd() *cobra.Command {
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Журнал действий",
	}

	var f model.ActivityLogFilter
	var userType, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Выгрузить журнал действий в CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.UserType = model.UserType(userType)
			d, err := o.client.ExportActivityLogs(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer d.Body.Close()

			if output == "" || output == "-" {
				_, err := io.Copy(o.out, d.Body)
				return err
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("создание %s: %w", output, err)
			}
			n, err := io.Copy(file, d.Body)
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("запись %s: %w", output, err)
			}
			printSuccess(o.errOut, "Сохранено %s (%d байт)", output, n)
			return nil
		},
	}
	export.Flags().StringVar(&f.Search, "search", "", "поиск")
	export.Flags().StringVar(&userType, "user-type", "", "тип пользователя (admin, partner)")
	export.Flags().StringVar(&f.Action, "action", "", "действие")
	export.Flags().StringVar(&f.DateFrom, "from", "", "дата с (YYYY-MM-DD)")
	export.Flags().StringVar(&f.DateTo, "to", "", "дата по (YYYY-MM-DD)")
	export.Flags().StringVarP(&output, "output", "o", "", "файл (по умолчанию stdout)")

	logs.AddCommand(export)
	return logs
}
