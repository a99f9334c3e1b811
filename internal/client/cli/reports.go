package cli

import (
	"context"
	"fmt"
	"strconv"
)

const activityPageSize = 20

func (a *App) Analytics(ctx context.Context, _ []string) error {
	r, err := a.api.Analytics().Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "verifications: %d total, %d in the last 24h, %d in the last 7 days\n",
		r.TotalVerifications, r.RecentVerifications, r.WeeklyVerifications)
	fmt.Fprintf(a.out, "users: %d\n", r.TotalUsers)

	if len(r.VerificationMethods) > 0 {
		tw := newTable(a.out, "METHOD", "COUNT")
		for _, m := range r.VerificationMethods {
			fmt.Fprintf(tw, "%s\t%d\n", m.VerificationMethod, m.Count)
		}
		tw.Flush()
	}
	if len(r.DailyVerifications) > 0 {
		tw := newTable(a.out, "DATE", "COUNT")
		for _, d := range r.DailyVerifications {
			fmt.Fprintf(tw, "%s\t%d\n", d.Date, d.Count)
		}
		tw.Flush()
	}
	return nil
}

// Activity prints one page of the activity log, newest first.
func (a *App) Activity(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 1 {
			return usage("activity [page]")
		}
		page = p
	}

	res, err := a.api.Activity().Get(ctx, page, activityPageSize)
	if err != nil {
		return err
	}

	tw := newTable(a.out, "WHEN", "USER", "TYPE", "DATA")
	for _, e := range res.Activities {
		user := e.Username
		if e.User != nil {
			user = e.User.Username()
		}
		data := "-"
		if e.ActivityData != nil {
			data = *e.ActivityData
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatTime(e.CreatedAt.Time), orDefault(user, "#"+strconv.FormatInt(e.UserID, 10)), e.ActivityType, data)
	}
	tw.Flush()
	fmt.Fprintf(a.out, "page %d (%d shown)\n", res.Page, len(res.Activities))
	return nil
}
