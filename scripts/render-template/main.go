// render-template renders or lints a template file without starting the server.
//
// Usage: go run ./scripts/render-template [flags] <render|lint> <template-file>
//
// The template file may be plain SQL or MyBatis markup. Use "-" to read it
// from stdin.
//
// Flags:
//
//	-params    Path to a JSON file with the template parameters (default: none)
//	-dialect   Placeholder dialect for preparedSql: postgres, mysql, sqlite, sqlserver
//	-unsafe    Substitute ${} values without blocking unsafe content
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-mapper/pkg/sqltemplate"
)

func main() {
	paramsPath := flag.String("params", "", "Path to a JSON file with the template parameters")
	dialect := flag.String("dialect", "", "Placeholder dialect for preparedSql")
	unsafe := flag.Bool("unsafe", false, "Substitute ${} values without blocking unsafe content")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-params file] [-dialect name] [-unsafe] <render|lint> <template-file>\n", os.Args[0])
		os.Exit(1)
	}
	action, templatePath := args[0], args[1]

	template, err := readInput(templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read template: %v\n", err)
		os.Exit(1)
	}

	request := map[string]any{"sqlTemplate": string(template)}
	if *paramsPath != "" {
		params, err := readInput(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read params: %v\n", err)
			os.Exit(1)
		}
		// Passed as text so malformed JSON is reported by the engine.
		request["params"] = string(params)
	}
	if *dialect != "" {
		request["dialect"] = *dialect
	}

	payload, err := json.Marshal(request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	defaults := sqltemplate.DefaultRenderOptions()
	defaults.SafeSubstitution = !*unsafe

	result, err := sqltemplate.ExecuteWith(action, payload, defaults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", apperrors.Code(err), err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
