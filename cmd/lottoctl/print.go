package main

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tbourn/lotto-console/internal/services"
)

func printDocument(w io.Writer, st services.State) {
	d := st.Edit
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "account\t%s\n", d.Account.UserID)
	for i, g := range d.Games {
		vis := st.Visibility[i]
		var detail []string
		if vis.NumbersVisible {
			detail = append(detail, "numbers="+g.Numbers)
		}
		if vis.AnalysisVisible {
			detail = append(detail, "range="+g.AnalysisRange.String())
		}
		state := "off"
		if g.Active {
			state = "on"
		}
		fmt.Fprintf(tw, "slot %d\t%s\t%s\t%s\n", g.ID, state, g.Mode, strings.Join(detail, " "))
	}
	fmt.Fprintf(tw, "deposit\tbelow %d charge %d\n", d.Deposit.Threshold, d.Deposit.Amount)
	s := d.Schedule
	fmt.Fprintf(tw, "schedule\tdeposit %s %s\tbuy %s %s\tcheck %s %s\n",
		s.DepositDay, s.DepositTime, s.BuyDay, s.BuyTime, s.CheckDay, s.CheckTime)
	if d.System.DiscordWebhook != "" {
		fmt.Fprintln(tw, "discord\tconfigured")
	}
	_ = tw.Flush()
}

func printStatus(w io.Writer, st services.State) {
	s := st.Status
	if s.Status == "" {
		fmt.Fprintln(w, "status unavailable")
		return
	}
	fmt.Fprintf(w, "bot %s, balance %d", s.Status, s.Balance)
	if s.LastRun != nil {
		fmt.Fprintf(w, ", last run %s", s.LastRun.Local().Format(time.DateTime))
	}
	fmt.Fprintln(w)
	if s.LatestResult != "" {
		fmt.Fprintf(w, "latest result (%s): %s\n", st.Tone, s.LatestResult)
	}
	names := make([]string, 0, len(s.NextRuns))
	for n := range s.NextRuns {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "next %s: %s\n", n, s.NextRuns[n].Local().Format(time.DateTime))
	}
}

// newLines returns the lines of cur that follow the overlap with prev.
// The backend sends a sliding tail, so the end of prev is looked up in cur.
func newLines(prev, cur []string) []string {
	if len(prev) == 0 {
		return cur
	}
	for start := 0; start < len(prev); start++ {
		tail := prev[start:]
		if len(tail) <= len(cur) && slices.Equal(tail, cur[:len(tail)]) {
			return cur[len(tail):]
		}
	}
	return cur
}

