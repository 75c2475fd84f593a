package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/amirasaad/charity/infra"
	"github.com/amirasaad/charity/infra/initializer"
	"github.com/amirasaad/charity/pkg/app"
	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]

Commands:
  migrate                                   apply database migrations
  create-user [--name N] [--password P] <email> <admin|volunteer>
  export [file]                             write every collection as JSON (stdout by default)
  totals [program]                          completed contributions in USD
`

var (
	success = color.New(color.FgGreen, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
	label   = color.New(color.FgCyan)
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		failure.Fprintln(os.Stderr, "✗", err) //nolint: errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(out, usage) //nolint: errcheck
		return errors.New("missing command")
	}
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	if args[0] == "migrate" {
		return migrate(cfg)
	}

	deps, cleanup, err := initializer.InitializeDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return dispatch(ctx, app.New(deps), args, out, os.Stdin)
}

func dispatch(ctx context.Context, a *app.App, args []string, out io.Writer, in *os.File) error {
	switch args[0] {
	case "create-user":
		return createUser(ctx, a, args[1:], out, in)
	case "export":
		return export(ctx, a.Deps.Store, args[1:], out)
	case "totals":
		return totals(ctx, a, args[1:], out)
	default:
		fmt.Fprint(out, usage) //nolint: errcheck
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func migrate(cfg *config.App) error {
	logger := initializer.SetupLogger(cfg.Log)
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint: errcheck
	return infra.RunMigrations(db, logger)
}

func createUser(ctx context.Context, a *app.App, args []string, out io.Writer, in *os.File) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password; prompted for when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: create-user [--name N] [--password P] <email> <admin|volunteer>")
	}
	email, role := fs.Arg(0), user.Role(fs.Arg(1))
	if !role.Valid() {
		return fmt.Errorf("role must be %s or %s", user.RoleAdmin, user.RoleVolunteer)
	}
	if *password == "" {
		p, err := readPassword(out, in)
		if err != nil {
			return err
		}
		*password = p
	}

	u, err := a.AuthService.CreateUser(ctx, email, *name, *password, role)
	if err != nil {
		return err
	}
	success.Fprintf(out, "✓ Created %s %s (%s)\n", u.Role, u.Email, u.ID) //nolint: errcheck
	return nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(out io.Writer, in *os.File) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(out, "Password: ") //nolint: errcheck
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(out) //nolint: errcheck
	if err != nil {
		return "", err
	}
	return string(p), nil
}

func export(ctx context.Context, store *repository.Store, args []string, out io.Writer) error {
	data, err := store.Export(ctx)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "-" {
		_, err := fmt.Fprintln(out, string(body))
		return err
	}
	if err := os.WriteFile(args[0], append(body, '\n'), 0o600); err != nil {
		return err
	}
	success.Fprintf(out, "✓ Exported %d collections to %s\n", len(data), args[0]) //nolint: errcheck
	return nil
}

func totals(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	filter := repository.Filter{}
	if len(args) > 0 && args[0] != "" {
		filter["program"] = args[0]
	}
	t, err := a.ContributionService.Totals(ctx, filter)
	if err != nil {
		return err
	}
	codes := make([]currency.Code, 0, len(t.ByCurrency))
	for code := range t.ByCurrency {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	var b strings.Builder
	for _, code := range codes {
		ct := t.ByCurrency[code]
		fmt.Fprintf(&b, "%s %s (%d contributions)\n", label.Sprintf("%-4s", code), ct.Amount.StringFixed(2), ct.Count)
	}
	fmt.Fprintf(&b, "%s %s from %d contributions at %s NGN/USD\n",
		label.Sprint("USD total"), success.Sprint(t.TotalUSD.StringFixed(2)), t.Count, t.NGNPerUSD.String())
	_, err = io.WriteString(out, b.String())
	return err
}
