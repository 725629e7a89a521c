package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/redisom"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <method> [args...]",
		Short: "Print the command a derived method compiles to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, s, err := session()
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.Explain(s, args[0], parseArgs(args[1:])...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "run <method> [args...]",
		Short: "Run a derived method and print its result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, s, err := session()
			if err != nil {
				return err
			}
			defer c.Close()

			repo, err := redisom.NewRepositoryWithSchema[map[string]interface{}](c, s)
			if err != nil {
				return err
			}
			operands := parseArgs(args[1:])
			if size > 0 {
				operands = append(operands, redisom.Page{Offset: page * size, Limit: size})
			}
			res, err := repo.ResolveQuery(cmd.Context(), args[0], operands...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number (with --size)")
	cmd.Flags().IntVar(&size, "size", 0, "Page size")
	return cmd
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the entity's search index",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create the index and reserve its probabilistic structures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, s, err := session()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.CreateIndex(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", c.CompileContext().IndexFor(s))
			return nil
		},
	}

	var deleteDocs bool
	drop := &cobra.Command{
		Use:   "drop",
		Short: "Drop the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, s, err := session()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.DropIndex(cmd.Context(), s, deleteDocs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", c.CompileContext().IndexFor(s))
			return nil
		},
	}
	drop.Flags().BoolVar(&deleteDocs, "delete-docs", false, "Also delete the indexed documents")

	cmd.AddCommand(create, drop)
	return cmd
}

// parseArgs turns command-line operands into typed values: integers,
// floats, booleans and JSON arrays (vectors, value lists) are recognised;
// anything else stays a string.
func parseArgs(args []string) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = parseArg(a)
	}
	return out
}

func parseArg(a string) interface{} {
	if n, err := strconv.ParseInt(a, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(a, 64); err == nil {
		return f
	}
	if a == "true" || a == "false" {
		return a == "true"
	}
	if strings.HasPrefix(a, "[") {
		var list []interface{}
		if err := json.Unmarshal([]byte(a), &list); err == nil {
			return homogenize(list)
		}
	}
	return a
}

// homogenize narrows a decoded JSON array to []float64 or []string when
// every element allows it.
func homogenize(list []interface{}) interface{} {
	floats := make([]float64, 0, len(list))
	strs := make([]string, 0, len(list))
	for _, v := range list {
		switch x := v.(type) {
		case float64:
			floats = append(floats, x)
		case string:
			strs = append(strs, x)
		}
	}
	switch {
	case len(floats) == len(list):
		return floats
	case len(strs) == len(list):
		return strs
	}
	return list
}

func render(w io.Writer, res *redisom.Result[map[string]interface{}]) error {
	view := map[string]interface{}{"category": res.Category}
	switch {
	case res.Entities != nil:
		view["total"] = res.Total
		view["entities"] = res.Entities
	case res.Found != nil:
		view["exists"] = res.Exists
		view["found"] = res.Found
	case res.Counts != nil:
		view["count"] = res.Count
		view["counts"] = res.Counts
	default:
		view["total"] = res.Total
		view["exists"] = res.Exists
		view["count"] = res.Count
		view["deleted"] = res.Deleted
		view["keys"] = res.Keys
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(view)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return fmt.Errorf("unknown format %q", format)
}
