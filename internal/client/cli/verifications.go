package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/veyra"
)

const ckeyPrefix = "ckey:"

// verificationKey reads "ckey:<ckey>" as a ckey and anything else as a
// Discord id.
func verificationKey(arg string) veyra.VerificationKey {
	if ckey, ok := strings.CutPrefix(arg, ckeyPrefix); ok {
		return veyra.ByCkey(ckey)
	}
	return veyra.ByDiscord(arg)
}

// Verify links a Discord account to a ckey, replacing any existing link of
// that Discord account. Extra "name=value" arguments become verified flags.
func (a *App) Verify(ctx context.Context, args []string) error {
	pos, names, values := splitAssignments(args)
	if len(pos) < 2 || len(pos) > 3 {
		return usage("verify <discord_id> <ckey> [method] [flag=value...]")
	}
	req := veyra.CreateVerification{
		DiscordID:     pos[0],
		Ckey:          pos[1],
		VerifiedFlags: parseFlags(names, values),
	}
	if len(pos) == 3 {
		req.VerificationMethod = pos[2]
	}

	v, err := a.api.Verifications().CreateOrUpdate(ctx, req)
	if err != nil {
		return err
	}
	printVerification(a.out, v)
	return nil
}

// ShowVerification prints one verification, or several at once when more
// than one key of the same kind is given.
func (a *App) ShowVerification(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		return usage("verification <discord_id|ckey:<ckey>>...")
	case 1:
		key := verificationKey(args[0])
		v, err := a.api.Verifications().Get(ctx, key)
		if err != nil {
			return err
		}
		if v == nil {
			return &veyra.NotFoundError{Resolvable: key}
		}
		printVerification(a.out, v)
		return nil
	}

	var discordIDs, ckeys []string
	for _, arg := range args {
		if ckey, ok := strings.CutPrefix(arg, ckeyPrefix); ok {
			ckeys = append(ckeys, ckey)
		} else {
			discordIDs = append(discordIDs, arg)
		}
	}
	if len(discordIDs) > 0 && len(ckeys) > 0 {
		return usage("verification takes either Discord ids or ckey:<ckey> keys, not both")
	}

	var (
		vs  []*veyra.Verification
		err error
	)
	if len(ckeys) > 0 {
		vs, err = a.api.Verifications().BulkByCkey(ctx, ckeys)
	} else {
		vs, err = a.api.Verifications().BulkByDiscord(ctx, discordIDs)
	}
	if err != nil {
		return err
	}
	printVerifications(a.out, vs)
	fmt.Fprintf(a.out, "%d of %d found\n", len(vs), len(args))
	return nil
}

// SetVerification patches a verification. discord_id, ckey and method set
// those fields; any other "name=value" argument is merged into the flags.
func (a *App) SetVerification(ctx context.Context, args []string) error {
	pos, names, values := splitAssignments(args)
	if len(pos) != 1 || len(names) == 0 {
		return usage("setverify <discord_id|ckey:<ckey>> [discord_id=..] [ckey=..] [method=..] [flag=value...]")
	}

	var (
		patch     veyra.VerificationPatch
		flagNames []string
	)
	for _, name := range names {
		v := values[name]
		switch name {
		case "discord_id":
			patch.DiscordID = &v
		case "ckey":
			patch.Ckey = &v
		case "method":
			patch.VerificationMethod = &v
		default:
			flagNames = append(flagNames, name)
		}
	}
	patch.VerifiedFlags = parseFlags(flagNames, values)

	key := verificationKey(pos[0])
	v, err := a.api.Verifications().Get(ctx, key)
	if err != nil {
		return err
	}
	if v == nil {
		return &veyra.NotFoundError{Resolvable: key}
	}

	msg, err := v.Update(ctx, patch)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, orDefault(msg, "Verification updated"))
	if !v.Deleted() {
		printVerification(a.out, v)
	}
	return nil
}

func (a *App) Unverify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("unverify <discord_id|ckey:<ckey>>")
	}
	msg, err := a.api.Verifications().Delete(ctx, verificationKey(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, orDefault(msg, "Verification deleted"))
	return nil
}

// ListVerifications prints one page of verifications. An optional leading
// number selects the page; the remaining arguments form the search text.
func (a *App) ListVerifications(ctx context.Context, args []string) error {
	opts := veyra.ListOptions{Page: veyra.DefaultPage, Limit: veyra.DefaultLimit}
	if len(args) > 0 {
		if page, err := strconv.Atoi(args[0]); err == nil {
			if page < 1 {
				return usage("verifications [page] [search]")
			}
			opts.Page = page
			args = args[1:]
		}
	}
	opts.Search = strings.Join(args, " ")

	page, err := a.api.Verifications().GetAll(ctx, opts)
	if err != nil {
		return err
	}
	printVerifications(a.out, page.Verifications)
	fmt.Fprintf(a.out, "page %d (%d shown)\n", page.Page, len(page.Verifications))
	return nil
}
