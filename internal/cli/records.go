package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/catalog/internal/entity"
	"github.com/mesh-intelligence/catalog/internal/transport"
)

var errUsage = errors.New("usage")

const assignHelp = `Each assignment has the form field=value. Values that parse as JSON
(numbers, true, false, null, arrays) are sent as such; anything else is
sent as a string. Quote a value to force a string: name='"2024"'.`

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the record types and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vs := entity.Models.Variants()
			if a.flags.jsonMode {
				out := make([]map[string]any, len(vs))
				for i, v := range vs {
					out[i] = map[string]any{"name": v.Name, "fields": v.Fields}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, v := range vs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", v.Name, strings.Join(v.Fields, ", "))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <model>",
		Short: "List every record of a model",
		Example: `  catalog list table
  catalog list column --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, tr, err := a.open(args[0])
			if err != nil {
				return err
			}
			c, err := entity.LoadCollection(cmd.Context(), v, tr)
			if err != nil {
				return err
			}
			return a.printRecords(cmd.OutOrStdout(), v, c.Records())
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <model> <id>",
		Short:   "Show one record",
		Example: `  catalog get database 3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, tr, err := a.open(args[0])
			if err != nil {
				return err
			}
			e, err := entity.Find(cmd.Context(), v, tr, args[1])
			if err != nil {
				return err
			}
			return a.printRecord(cmd.OutOrStdout(), e)
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <model> field=value...",
		Short: "Create a record",
		Long:  "Create stages the assignments on a new record and saves it.\n\n" + assignHelp,
		Example: `  catalog create grouping name=Finance
  catalog create table name=orders database=1 description="order facts"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, tr, err := a.open(args[0])
			if err != nil {
				return err
			}
			assigns, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := primeCSRF(ctx, tr, v); err != nil {
				return err
			}

			e := entity.New(v, tr, nil)
			e.Edit()
			if err := stage(e, assigns); err != nil {
				return err
			}
			if err := e.Save(ctx); err != nil {
				return err
			}
			return a.printRecord(cmd.OutOrStdout(), e)
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "update <model> <id> field=value...",
		Short:   "Change fields of a record",
		Long:    "Update loads the record, applies the assignments and saves it.\n\n" + assignHelp,
		Example: `  catalog update column 12 is_derived_item=true derivation="a + b"`,
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, tr, err := a.open(args[0])
			if err != nil {
				return err
			}
			assigns, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := entity.Find(ctx, v, tr, args[1])
			if err != nil {
				return err
			}
			e.Edit()
			if err := stage(e, assigns); err != nil {
				e.Cancel()
				return err
			}
			if err := e.Save(ctx); err != nil {
				return err
			}
			return a.printRecord(cmd.OutOrStdout(), e)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <model> <id>",
		Short:   "Delete a record",
		Example: `  catalog delete table 7`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, tr, err := a.open(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := entity.Find(ctx, v, tr, args[1])
			if err != nil {
				return err
			}
			if err := e.Remove(ctx); err != nil {
				return err
			}
			id, _ := e.ID()
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", v.Name, id)
			return nil
		},
	}
}

// open resolves the model name and builds a transport from the loaded config.
func (a *app) open(model string) (entity.Variant, *transport.HTTP, error) {
	v, err := entity.Resolve(model)
	if err != nil {
		return entity.Variant{}, nil, err
	}
	tr, err := transport.New(clientConfig(a.cfg), transport.WithLogger(a.log))
	if err != nil {
		return entity.Variant{}, nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	return v, tr, nil
}

// primeCSRF fetches the collection once when no CSRF token is known so the
// backend can issue its cookie before the first unsafe request.
func primeCSRF(ctx context.Context, tr *transport.HTTP, v entity.Variant) error {
	if tr.CSRFToken() != "" {
		return nil
	}
	url, err := v.URL()
	if err != nil {
		return err
	}
	_, err = tr.Request(ctx, http.MethodGet, url, nil)
	return err
}

type assignment struct {
	field string
	value any
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: expected field=value, got %q", errUsage, arg)
		}
		out = append(out, assignment{field: field, value: parseValue(raw)})
	}
	return out, nil
}

func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func stage(e *entity.Entity, assigns []assignment) error {
	for _, as := range assigns {
		if err := e.Editing.Set(as.field, as.value); err != nil {
			return err
		}
	}
	return nil
}
