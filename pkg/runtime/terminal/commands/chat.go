package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/report-assistant/pkg/adapters"
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/de-tools/report-assistant/pkg/runtime/terminal/export"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/de-tools/report-assistant/pkg/store/duckdb/clientstate"
	"github.com/de-tools/report-assistant/pkg/store/duckdb/history"
	"github.com/spf13/cobra"
)

const chatHelp = `Commands:
  /params <json>             submit report parameters
  /filters <json> [-- text]  replace filters, optionally with a chat message
  /clearfilters              remove every filter
  /retry                     retry a failed initialization
  /new                       start a new session
  /clear                     clear the conversation
  /state                     show the session state
  /quit                      leave
Anything else is sent to the assistant.
`

type ChatCmd struct {
	userName string
	userID   string
	env      *Environment
	reporter *export.Reporter
	out      io.Writer

	printed int
}

func NewChatCmd(env *Environment, reporter *export.Reporter, out io.Writer) *cobra.Command {
	cc := &ChatCmd{env: env, reporter: reporter, out: out}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive report session",
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.userName, "user", "", "User name to open the session with")
	cmd.Flags().StringVar(&cc.userID, "user-id", "", "User id sent with report requests (defaults to --user)")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (cc *ChatCmd) orchestrator() (*session.Orchestrator, error) {
	backend, err := cc.env.backend()
	if err != nil {
		return nil, err
	}
	db, err := cc.env.db()
	if err != nil {
		return nil, err
	}
	storage, err := clientstate.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create client storage: %w", err)
	}
	reports, err := history.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create report history: %w", err)
	}

	urls := cc.env.urls()
	return session.NewOrchestrator(session.Dependencies{
		Chat:            backend,
		Reports:         backend,
		Forecast:        backend,
		Storage:         storage,
		History:         reports,
		Compiler:        cc.env.compiler(),
		URLs:            urls,
		ForecastTimeout: cc.env.Config.Session.ForecastTimeout,
	})
}

func (cc *ChatCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cc.env.context(cmd.Context())
	if cc.userID == "" {
		cc.userID = cc.userName
	}

	o, err := cc.orchestrator()
	if err != nil {
		return err
	}
	defer o.Wait()

	if err := cc.show(o.Start(ctx, domain.User{Name: cc.userName, ID: cc.userID})); err != nil {
		return err
	}
	fmt.Fprint(cc.out, chatHelp)

	scanner := bufio.NewScanner(cc.env.input())
	for {
		fmt.Fprint(cc.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := cc.handle(ctx, o, line)
		if err != nil {
			fmt.Fprintf(cc.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (cc *ChatCmd) handle(ctx context.Context, o *session.Orchestrator, line string) (bool, error) {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprint(cc.out, chatHelp)
		return false, nil
	case "/state":
		v := o.Snapshot()
		fmt.Fprintf(cc.out, "state: %s, chat enabled: %t\n", v.State, v.ChatEnabled)
		if v.ChartURL != "" {
			fmt.Fprintf(cc.out, "chart: %s\n", v.ChartURL)
		}
		return false, nil
	case "/params":
		var req api.ParametersRequest
		if err := json.Unmarshal([]byte(arg), &req); err != nil {
			return false, fmt.Errorf("invalid parameters: %w", err)
		}
		v, err := o.SubmitParameters(ctx, adapters.MapAPIParametersToDomain(req))
		if err != nil {
			return false, err
		}
		return false, cc.show(v)
	case "/filters":
		raw, message, _ := strings.Cut(arg, " -- ")
		var fs api.FilterSet
		if err := json.Unmarshal([]byte(raw), &fs); err != nil {
			return false, fmt.Errorf("invalid filters: %w", err)
		}
		v := o.UpdateFilters(ctx, adapters.MapAPIFilterSetToDomain(fs), message)
		if err := cc.reporter.Fragments(v.Fragments, nil); err != nil {
			return false, err
		}
		return false, cc.show(v)
	case "/clearfilters":
		return false, cc.show(o.ClearFilters(ctx))
	case "/retry":
		v, err := o.Retry(ctx)
		if err != nil {
			return false, err
		}
		return false, cc.show(v)
	case "/new":
		current := o.Snapshot().Session
		cc.printed = 0
		return false, cc.show(o.Start(ctx, domain.User{Name: current.UserName, ID: current.UserID}))
	case "/clear":
		cc.printed = 0
		return false, cc.show(o.ClearChat())
	}

	v, err := o.SendChat(ctx, line)
	if errors.Is(err, session.ErrChatDisabled) {
		return false, fmt.Errorf("submit /params first")
	}
	if err != nil {
		return false, err
	}
	return false, cc.show(v)
}

// show prints the messages added since the last call.
func (cc *ChatCmd) show(v session.View) error {
	if cc.printed > len(v.Messages) {
		cc.printed = 0
	}
	fresh := v.Messages[cc.printed:]
	cc.printed = len(v.Messages)
	return cc.reporter.Messages(fresh)
}
