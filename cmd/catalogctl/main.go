package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"catalog_srv/internal/config"
	"catalog_srv/internal/domain/catalog"
	"catalog_srv/internal/domain/query"
	sqlinfra "catalog_srv/internal/infrastructure/sql"
	"catalog_srv/internal/logging"
	"catalog_srv/internal/usecase"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Run rental catalog queries from the command line",
		SilenceUsage: true,
	}
	root.AddCommand(newOperationsCmd(), newRunCmd())
	return root
}

func newOperationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List available operations and their parameters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tPARAMETERS\tCOLUMNS")
			for _, op := range catalog.Operations() {
				params := make([]string, 0, len(op.Params))
				for _, p := range op.ParamInfo() {
					params = append(params, fmt.Sprintf("%s:%s", p.Name, strings.Join(p.Kinds, "|")))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", op.Name, strings.Join(params, " "), strings.Join(op.Columns, ","))
			}
			return w.Flush()
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		pairs  []string
		output string
	)
	cmd := &cobra.Command{
		Use:   "run <operation>",
		Short: "Run one operation and print its result table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(pairs)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

			conn, err := sqlinfra.Open(cmd.Context(), cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := usecase.NewQueryService(conn, logger)
			table, err := svc.Execute(cmd.Context(), query.Request{Operation: args[0], Params: params})
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), table, output)
		},
	}
	cmd.Flags().StringArrayVarP(&pairs, "param", "p", nil, "parameter as name=value (prefix value with int:, real:, text: or list: to force its kind)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or records")
	return cmd
}

func printTable(w io.Writer, table *query.Table, format string) error {
	switch format {
	case "json", "records":
		var result any = table
		if format == "records" {
			result = table.Records()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"result": result})
	}

	if table == nil {
		_, err := fmt.Fprintln(w, "no result")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(tw, "(%d rows)\n", table.Len())
	return tw.Flush()
}
