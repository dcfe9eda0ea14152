package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const clockLayout = "15:04:05"

func statusLine(status Status) string {
	switch status {
	case StatusConnected:
		return "[connected] live data from server"
	case StatusOfflineSimulation:
		return "[OFFLINE SIMULATION] synthetic data, server unreachable"
	default:
		return "[disconnected] waiting for server"
	}
}

// Render writes one plain-text frame of the dashboard.
func Render(w io.Writer, snap Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Store Traffic Dashboard")
	fmt.Fprintln(tw, statusLine(snap.Status))
	if snap.Database != "" {
		fmt.Fprintf(tw, "server database: %s\n", snap.Database)
	}
	fmt.Fprintf(tw, "Store ID: %d\tTotal customers in store: %d\n", snap.StoreID, snap.Total)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "LIVE")
	fmt.Fprintln(tw, "TIME\tSTORE\tIN\tOUT")
	if len(snap.Live) == 0 {
		fmt.Fprintln(tw, "-\t-\t-\t-")
	}
	for _, event := range snap.Live {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
			event.TimeStamp.Local().Format(clockLayout), event.StoreID, event.CustomersIn, event.CustomersOut)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "LAST 24 HOURS")
	fmt.Fprintln(tw, "HOUR\tIN\tOUT\tNET")
	if len(snap.Hourly) == 0 {
		fmt.Fprintln(tw, "-\t-\t-\t-")
	}
	for _, bucket := range snap.Hourly {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\n", bucket.Hour, bucket.CustomersIn, bucket.CustomersOut, bucket.NetChange)
	}

	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "updated %s\n", snap.UpdatedAt.Format(time.RFC3339))
	}

	return tw.Flush()
}
