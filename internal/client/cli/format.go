package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/veyra"
)

const displayTime = "2006-01-02 15:04"

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(displayTime)
}

func printUser(w io.Writer, u *veyra.User) {
	fmt.Fprintf(w, "#%d %s role=%s created=%s\n", u.ID(), u.Username(), u.Role(), formatTime(u.CreatedAt()))
}

func printUsers(w io.Writer, users []*veyra.User) {
	tw := newTable(w, "ID", "USERNAME", "ROLE", "CREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID(), u.Username(), u.Role(), formatTime(u.CreatedAt()))
	}
	tw.Flush()
}

// formatFlags renders flags sorted by name, e.g. "byond=true note=vip".
func formatFlags(flags veyra.Flags) string {
	if len(flags) == 0 {
		return "-"
	}
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, flags[name]))
	}
	return strings.Join(parts, " ")
}

func printVerification(w io.Writer, v *veyra.Verification) {
	fmt.Fprintf(w, "discord=%s ckey=%s method=%s by=%s\n", v.DiscordID(), v.Ckey(), v.VerificationMethod(), v.VerifiedBy())
	fmt.Fprintf(w, "  flags: %s\n", formatFlags(v.VerifiedFlags()))
	fmt.Fprintf(w, "  created: %s", formatTime(v.CreatedAt()))
	if v.HasBeenUpdated() {
		fmt.Fprintf(w, "  updated: %s", formatTime(*v.UpdatedAt()))
	}
	fmt.Fprintln(w)
}

func printVerifications(w io.Writer, vs []*veyra.Verification) {
	tw := newTable(w, "DISCORD", "CKEY", "METHOD", "BY", "FLAGS", "CREATED")
	for _, v := range vs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.DiscordID(), v.Ckey(), v.VerificationMethod(), v.VerifiedBy(),
			formatFlags(v.VerifiedFlags()), formatTime(v.CreatedAt()))
	}
	tw.Flush()
}
