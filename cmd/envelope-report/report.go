package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	internalTypes "github.com/budgetkit/envelope-go/internal/types"
	"github.com/budgetkit/envelope-go/pkg/envelope"
)

func runReport(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	cfg, err := loadFileConfig(flagConfig)
	if err != nil {
		return err
	}

	ledgerRef := flagLedger
	if ledgerRef == "" {
		ledgerRef = cfg.Ledger
	}
	if ledgerRef == "" {
		return fmt.Errorf("no ledger given: use --ledger or set it in the config file")
	}

	token := flagToken
	if token == "" {
		token = cfg.Token
	}

	opts := &envelope.Options{
		ShowRealAccounts: flagShowAccounts || cfg.ShowAccounts,
		FutureMonths:     flagFutureMonths,
		Logger:           &log,
		SentryDSN:        cfg.SentryDSN,
	}
	if opts.FutureMonths == 0 {
		opts.FutureMonths = cfg.FutureMonths
	}
	if flagNoFutureRoll {
		off := false
		opts.FutureRollover = &off
	} else if cfg.FutureRollover != nil {
		opts.FutureRollover = cfg.FutureRollover
	}

	startRef := flagStart
	if startRef == "" {
		startRef = cfg.StartDate
	}
	if startRef != "" {
		var start envelope.Date
		if err := start.UnmarshalJSON([]byte(`"` + startRef + `"`)); err != nil {
			return fmt.Errorf("bad start date %q: %w", startRef, err)
		}
		opts.StartDate = &start
	}

	engine, err := envelope.New(opts)
	if err != nil {
		return err
	}

	var source envelope.LedgerSource
	if isURL(ledgerRef) {
		source = envelope.NewHTTPSource(ledgerRef, &envelope.HTTPSourceOptions{
			Token:       token,
			RetryConfig: &internalTypes.RetryConfig{MaxRetries: 3},
		})
	} else {
		source = &envelope.FileSource{Path: ledgerRef}
	}

	result, err := engine.ComputeFrom(cmd.Context(), source)
	if err != nil {
		return err
	}

	month := result.CurrentMonth
	if flagMonth != "" {
		month, err = envelope.ParseMonth(flagMonth)
		if err != nil {
			return err
		}
	}

	view, err := result.PeriodView(month, flagShowAccounts || cfg.ShowAccounts)
	if err != nil {
		return err
	}

	switch flagFormat {
	case "json":
		return renderJSON(result, view)
	case "table":
		return renderTable(result, view)
	default:
		return fmt.Errorf("unknown format %q", flagFormat)
	}
}

func renderTable(result *envelope.Result, view *envelope.PeriodView) error {
	m := view.Month

	fmt.Printf("Budget for %s (%s)\n\n", m, result.Currency)

	summary := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(summary, "Avail Income\t%s\t\n", result.Summary.AvailIncome(m).StringFixed(2))
	fmt.Fprintf(summary, "Overspent\t%s\t\n", result.Summary.Overspent(m).StringFixed(2))
	fmt.Fprintf(summary, "Budgeted\t%s\t\n", result.Summary.Budgeted(m).StringFixed(2))
	fmt.Fprintf(summary, "Budgeted Future\t%s\t\n", result.Summary.BudgetedFuture(m).StringFixed(2))
	fmt.Fprintf(summary, "To Be Budgeted\t%s\t\n", result.Summary.ToBeBudgeted(m).StringFixed(2))
	if err := summary.Flush(); err != nil {
		return err
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tBUDGETED\tACTIVITY\tAVAILABLE\tGOAL\tPROGRESS")

	var walk func(idx, depth int)
	walk = func(idx, depth int) {
		if !view.IsVisible(idx) {
			return
		}
		node := view.Tree.Node(idx)
		row := view.Row(node)

		name := strings.Repeat("  ", depth) + node.Name
		goal, progress := "", ""
		if g, ok := row.DisplayGoal(); ok {
			goal = fmt.Sprintf("%s %s", g.Kind.Letter(), g.Amount.StringFixed(2))
			progress = fmt.Sprintf("%.0f%%", g.Progress()*100)
			if row.IsUnderfunded() {
				progress += " !"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			name,
			money(row.Budgeted),
			money(row.Spent),
			money(row.Available),
			goal,
			progress)

		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range view.Tree.Roots() {
		walk(root, 0)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Error())
	}
	return nil
}

func money(d decimal.Decimal) string {
	if d.IsZero() {
		return "-"
	}
	return d.StringFixed(2)
}

// jsonRow is one flattened hierarchy row of the JSON output
type jsonRow struct {
	Name         string  `json:"name"`
	Depth        int     `json:"depth"`
	Budgeted     string  `json:"budgeted"`
	Activity     string  `json:"activity"`
	Available    string  `json:"available"`
	Goal         string  `json:"goal,omitempty"`
	GoalType     string  `json:"goalType,omitempty"`
	GoalProgress float64 `json:"goalProgress,omitempty"`
	Underfunded  bool    `json:"underfunded,omitempty"`
}

func renderJSON(result *envelope.Result, view *envelope.PeriodView) error {
	m := view.Month

	var rows []jsonRow
	var walk func(idx, depth int)
	walk = func(idx, depth int) {
		if !view.IsVisible(idx) {
			return
		}
		node := view.Tree.Node(idx)
		row := view.Row(node)

		out := jsonRow{
			Name:      node.Name,
			Depth:     depth,
			Budgeted:  row.Budgeted.StringFixed(2),
			Activity:  row.Spent.StringFixed(2),
			Available: row.Available.StringFixed(2),
		}
		if g, ok := row.DisplayGoal(); ok {
			out.Goal = g.Amount.StringFixed(2)
			out.GoalType = g.Kind.Letter()
			out.GoalProgress = g.Progress()
			out.Underfunded = row.IsUnderfunded()
		}
		rows = append(rows, out)

		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range view.Tree.Roots() {
		walk(root, 0)
	}

	payload := map[string]interface{}{
		"runId":    result.RunID,
		"month":    m,
		"currency": result.Currency,
		"summary": map[string]string{
			"availIncome":    result.Summary.AvailIncome(m).StringFixed(2),
			"overspent":      result.Summary.Overspent(m).StringFixed(2),
			"budgeted":       result.Summary.Budgeted(m).StringFixed(2),
			"budgetedFuture": result.Summary.BudgetedFuture(m).StringFixed(2),
			"toBeBudgeted":   result.Summary.ToBeBudgeted(m).StringFixed(2),
		},
		"rows":        rows,
		"diagnostics": result.Diagnostics,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
