package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/report-assistant/pkg/adapters"
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type CompileCmd struct {
	file     string
	env      *Environment
	reporter *export.Reporter
}

func NewCompileCmd(env *Environment, reporter *export.Reporter) *cobra.Command {
	cc := &CompileCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a filter set into query fragments",
		RunE:  cc.run,
	}

	cmd.Flags().StringVarP(&cc.file, "file", "f", "-", "Filter set JSON file, - for stdin")

	return cmd
}

func (cc *CompileCmd) run(cmd *cobra.Command, _ []string) error {
	var fs api.FilterSet
	if err := readJSON(cc.file, cc.env.input(), &fs); err != nil {
		return err
	}

	fragments, skips := cc.env.compiler().CompileWithAudit(adapters.MapAPIFilterSetToDomain(fs))
	return cc.reporter.Fragments(fragments, skips)
}

func readJSON(path string, stdin io.Reader, v any) error {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
