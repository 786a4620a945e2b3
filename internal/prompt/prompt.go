// Package prompt asks the operator to settle ambiguous matches in the
// terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Operator is a resolve.Operator backed by huh forms. It only collects the
// raw answer; the resolver decides whether it is acceptable.
type Operator struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

type Option func(*Operator)

func WithInput(r io.Reader) Option  { return func(o *Operator) { o.in = r } }
func WithOutput(w io.Writer) Option { return func(o *Operator) { o.out = w } }

// WithAccessible switches to huh's line-based prompts, for screen readers
// and dumb terminals.
func WithAccessible(on bool) Option { return func(o *Operator) { o.accessible = on } }

func New(opts ...Option) *Operator {
	o := &Operator{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Operator) Ask(ctx context.Context, req resolve.Request) (resolve.Response, error) {
	if err := ctx.Err(); err != nil {
		return resolve.Response{}, err
	}

	if _, err := fmt.Fprintln(o.out, Render(req)); err != nil {
		return resolve.Response{}, fmt.Errorf("writing prompt: %w", err)
	}

	var key string

	pick := huh.NewSelect[string]().
		Title(question(req.Kind)).
		Options(options(req.Options)...).
		Value(&key)

	if err := o.run(ctx, pick); err != nil {
		return resolve.Response{}, err
	}

	if !optionNeedsValue(req.Options, key) {
		return resolve.Response{Key: key}, nil
	}

	var value string

	input := huh.NewInput().
		Title(valueTitle(req, key)).
		Value(&value)

	if err := o.run(ctx, input); err != nil {
		return resolve.Response{}, err
	}

	return resolve.Response{Key: key, Value: strings.TrimSpace(value)}, nil
}

// run shows one field as its own form. The value question is a second
// form so that line-based prompts only ask it when the choice needs it.
func (o *Operator) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(o.in).
		WithOutput(o.out).
		WithAccessible(o.accessible).
		WithShowHelp(false)

	return formError(form.RunWithContext(ctx))
}

func formError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return resolve.ErrAborted
	}

	return fmt.Errorf("running prompt: %w", err)
}

func question(k resolve.Kind) string {
	switch k {
	case resolve.KindSelect:
		return "Which ledger transaction is this?"
	case resolve.KindNoMatch:
		return "No ledger transaction matches. What now?"
	case resolve.KindAmbiguous:
		return "Too many candidates to choose from. Skip it?"
	}

	return string(k)
}

func options(opts []resolve.Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, opt := range opts {
		out[i] = huh.NewOption(opt.Label, opt.Key)
	}

	return out
}

func optionNeedsValue(opts []resolve.Option, key string) bool {
	for _, opt := range opts {
		if opt.Key == key {
			return opt.NeedsValue
		}
	}

	return false
}

func valueTitle(req resolve.Request, key string) string {
	switch key {
	case resolve.OptionWidenDays:
		return fmt.Sprintf("How many more days? (now %d)", req.Config.Days)
	case resolve.OptionWidenAmount:
		return fmt.Sprintf("How much more amount? (now %s)", req.Config.AmountRange.StringFixed(2))
	}

	return "Value?"
}

// Render describes the request: the receipt leg being searched, the
// current window and, when the previous answer was rejected, why.
func Render(req resolve.Request) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Receipt " + req.Receipt))
	sb.WriteString("\n")

	if req.Search != nil {
		fmt.Fprintf(&sb, "%s  %s %s  %s\n",
			req.Search.Date().Format(time.DateOnly),
			transaction.Round(req.Search.NetAmount()).StringFixed(2),
			req.Search.Account().BaseCurrency,
			req.Search.Account().Key(),
		)

		if desc := req.Search.Description(); desc != "" {
			sb.WriteString(desc + "\n")
		}
	}

	sb.WriteString(faintStyle.Render("window " + req.Config.String()))

	if n := len(req.Candidates); n > 0 {
		fmt.Fprintf(&sb, "\n%s", faintStyle.Render(fmt.Sprintf("%d candidates", n)))
	}

	if req.Problem != "" {
		sb.WriteString("\n" + problemStyle.Render(req.Problem))
	}

	return panelStyle.Render(sb.String())
}
