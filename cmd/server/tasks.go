package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"exchangedesk/internal/client"
	"exchangedesk/internal/taskview"
	"exchangedesk/internal/viewstate"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type tasksOptions struct {
	api        string
	token      string
	exchange   string
	search     string
	statuses   []string
	priorities []string
	timeframe  string
	groupBy    string
	sort       string
	dir        string
}

func newTasksCmd() *cobra.Command {
	var opts tasksOptions

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print the task list of a running API, filtered and grouped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			api := opts.api
			if api == "" {
				api = "http://localhost:" + cfg.ServerPort
			}
			token := opts.token
			if token == "" {
				token = os.Getenv("EXCHANGEDESK_TOKEN")
			}

			sessionCfg := viewstate.Config{ViewID: "cli", Logger: logger}
			if opts.exchange != "" {
				id, err := uuid.Parse(opts.exchange)
				if err != nil {
					return fmt.Errorf("invalid exchange ID %q", opts.exchange)
				}
				sessionCfg.ExchangeID = &id
			}

			c := client.New(client.Config{BaseURL: api, Token: token, Timeout: cfg.ClientTimeout})
			ctx := cmd.Context()
			session := viewstate.NewSession(ctx, c, nil, sessionCfg)
			if err := session.Load(ctx); err != nil {
				return err
			}

			filter := taskview.FilterState{
				Search:     opts.search,
				Statuses:   taskview.ParseStatuses(opts.statuses),
				Priorities: taskview.ParsePriorities(opts.priorities),
				Timeframe:  taskview.ParseTimeframe(opts.timeframe),
			}
			session.SetFilter(ctx, filter)
			session.SetSort(ctx, taskview.ParseSort(opts.sort, opts.dir, taskview.DefaultSort))
			session.SetGroupBy(ctx, taskview.ParseGroupBy(opts.groupBy))

			return printGroups(cmd.OutOrStdout(), session.Groups())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.api, "api", "", "API base URL (default http://localhost:$SERVER_PORT)")
	f.StringVar(&opts.token, "token", "", "bearer token (default $EXCHANGEDESK_TOKEN)")
	f.StringVar(&opts.exchange, "exchange", "", "limit to one exchange")
	f.StringVar(&opts.search, "search", "", "match title, assignee name or email")
	f.StringSliceVar(&opts.statuses, "status", nil, "statuses to include; none selects unset")
	f.StringSliceVar(&opts.priorities, "priority", nil, "priorities to include; none selects unset")
	f.StringVar(&opts.timeframe, "timeframe", "all", "overdue, today, this-week, this-month or all")
	f.StringVar(&opts.groupBy, "group-by", "status", "status, priority, assignee, due_date or none")
	f.StringVar(&opts.sort, "sort", "", "due_date, priority, created_at or title")
	f.StringVar(&opts.dir, "dir", "", "asc or desc")
	return cmd
}

func printGroups(out io.Writer, groups []taskview.Group) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", g.Label, g.Len())
		for _, t := range g.Tasks {
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				t.Title, orDash(string(t.Status)), orDash(string(t.Priority)), taskview.AssigneeKey(t), due)
		}
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
