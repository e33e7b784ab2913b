// Package admin implements calcadm, the operator tool for inspecting and
// adjusting entitlement records.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/services"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

const usage = `Usage: calcadm [flags] <command> <email>

Commands:
  status <email>     show the entitlement record
  reset <email>      set calculationsUsed back to zero
  grant <email>      activate a subscription without a payment
  payments <email>   list recorded payments

Flags:
  -y                 do not ask for confirmation
  -c, -b, -d, -m     config file, storage backend, SQL DSN, MongoDB URI
`

// ErrAborted is returned when the operator declines a confirmation.
var ErrAborted = errors.New("aborted")

type App struct {
	access    *services.AccessService
	activator *services.ActivatorService
	in        *bufio.Reader
	stdin     *os.File
	out       io.Writer
	assumeYes bool
}

func NewApp(access *services.AccessService, activator *services.ActivatorService, stdin *os.File, out io.Writer, assumeYes bool) *App {
	return &App{
		access:    access,
		activator: activator,
		in:        bufio.NewReader(stdin),
		stdin:     stdin,
		out:       out,
		assumeYes: assumeYes,
	}
}

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" {
		fmt.Fprint(a.out, usage)
		return 2
	}
	if len(args) != 2 {
		fmt.Fprintf(a.out, "%s: expected exactly one email\n\n%s", args[0], usage)
		return 2
	}

	cmd, email := args[0], common.NormalizeEmail(args[1])
	var err error
	switch cmd {
	case "status":
		err = a.status(ctx, email)
	case "reset":
		err = a.reset(ctx, email)
	case "grant":
		err = a.grant(ctx, email)
	case "payments":
		err = a.payments(ctx, email)
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, ErrAborted) {
			fmt.Fprintln(a.out, "Aborted.")
			return 1
		}
		fmt.Fprintf(a.out, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *App) status(ctx context.Context, email string) error {
	st, err := a.access.GetEntitlement(ctx, email)
	if err != nil {
		return err
	}

	expires := "-"
	if st.SubscriptionExpires != nil {
		expires = st.SubscriptionExpires.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(a.out, "email:               %s\n", st.Email)
	fmt.Fprintf(a.out, "subscriptionActive:  %t\n", st.SubscriptionActive)
	fmt.Fprintf(a.out, "subscriptionExpires: %s\n", expires)
	fmt.Fprintf(a.out, "tokenBalance:        %d\n", st.TokenBalance)
	fmt.Fprintf(a.out, "calculationsUsed:    %d/%d\n", st.CalculationsUsed, st.FreeCalculations)
	return nil
}

func (a *App) reset(ctx context.Context, email string) error {
	if err := a.confirm(fmt.Sprintf("Reset free calculations for %s?", email)); err != nil {
		return err
	}
	e, err := a.access.ResetUsage(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no record for %s", email)
		}
		return err
	}
	fmt.Fprintf(a.out, "%s: calculationsUsed=%d\n", e.Email, e.CalculationsUsed)
	return nil
}

func (a *App) grant(ctx context.Context, email string) error {
	if err := a.confirm(fmt.Sprintf("Grant a subscription to %s?", email)); err != nil {
		return err
	}
	e, err := a.activator.GrantSubscription(ctx, email, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: subscription active until %s\n", e.Email, e.SubscriptionExpires.UTC().Format(time.RFC3339))
	return nil
}

func (a *App) payments(ctx context.Context, email string) error {
	list, err := a.activator.Payments(ctx, email)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "no payments")
		return nil
	}
	for _, p := range list {
		fmt.Fprintln(a.out, formatPayment(p))
	}
	return nil
}

func formatPayment(p *models.Payment) string {
	return fmt.Sprintf("%s  %-12s  %8d  %s", p.CreatedAt.UTC().Format(time.RFC3339), p.Kind, p.Amount, p.Reference)
}

// confirm asks on interactive terminals only; piped input is trusted.
func (a *App) confirm(prompt string) error {
	if a.assumeYes || a.stdin == nil || !isTerminal(int(a.stdin.Fd())) {
		return nil
	}
	answer, err := getSimpleText(a.in, prompt+" [y/N]", a.out)
	if err != nil {
		return err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	default:
		return ErrAborted
	}
}

// getSimpleText prints a prompt and reads a single trimmed line.
func getSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// SplitArgs separates flags from positional arguments. Flags listed in
// valueFlags consume the following argument unless given as -f=value.
func SplitArgs(args []string, valueFlags []string) (flags, positional []string) {
	takesValue := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		takesValue[f] = struct{}{}
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := takesValue[arg]; ok && i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return flags, positional
}
