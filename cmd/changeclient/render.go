package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cash-register-client/internal/model"
	"cash-register-client/internal/state"
)

// render subscribes the terminal display to the store. The returned func
// unsubscribes.
func render(store *state.Store, stdout, stderr io.Writer) func() {
	cancels := []func(){
		store.Result.Subscribe(func(r *model.ChangeResponse) {
			if r != nil {
				writeResults(stdout, []model.ChangeResponse{*r})
			}
		}),
		store.BatchResults.Subscribe(func(rs []model.ChangeResponse) {
			if len(rs) > 0 {
				writeResults(stdout, rs)
			}
		}),
		store.Error.Subscribe(func(msg string) {
			if msg != "" {
				fmt.Fprintln(stderr, "error:", msg)
			}
		}),
	}

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func writeResults(w io.Writer, rs []model.ChangeResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OWED\tPAID\tCHANGE\tBREAKDOWN")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.AmountOwed.StringFixed(2),
			r.AmountPaid.StringFixed(2),
			r.Change.StringFixed(2),
			r.FormattedChange,
		)
	}
	tw.Flush()
}
