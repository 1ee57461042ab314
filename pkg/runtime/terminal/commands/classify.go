package commands

import (
	"github.com/de-tools/report-assistant/pkg/adapters"
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/runtime/terminal/export"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/spf13/cobra"
)

type ClassifyCmd struct {
	file      string
	userName  string
	sessionID string
	env       *Environment
	reporter  *export.Reporter
}

func NewClassifyCmd(env *Environment, reporter *export.Reporter) *cobra.Command {
	cc := &ClassifyCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Detect report files in a backend response",
		RunE:  cc.run,
	}

	cmd.Flags().StringVarP(&cc.file, "file", "f", "-", "Backend response JSON file, - for stdin")
	cmd.Flags().StringVar(&cc.userName, "user", "", "User the report belongs to")
	cmd.Flags().StringVar(&cc.sessionID, "session", "", "Session the report belongs to")

	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func (cc *ClassifyCmd) run(cmd *cobra.Command, _ []string) error {
	var resp api.ReportResponse
	if err := readJSON(cc.file, cc.env.input(), &resp); err != nil {
		return err
	}

	classifier := report.NewClassifier(cc.env.urls())
	detection := classifier.Classify(adapters.MapAPIResponseToDomain(resp), report.Location{
		UserName:  cc.userName,
		SessionID: cc.sessionID,
	})
	return cc.reporter.Detection(detection)
}
