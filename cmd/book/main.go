package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/diagnosis/numerology-appointments/internal/client"
	"github.com/diagnosis/numerology-appointments/internal/domain"
	"github.com/diagnosis/numerology-appointments/internal/wizard"
	"github.com/diagnosis/numerology-appointments/pkg/auth"
	"github.com/diagnosis/numerology-appointments/pkg/config"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
)

const (
	inputDateLayout = "2006-01-02"
	inputTimeLayout = "15:04"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stderr, slog.LevelWarn))

	apiURL := flag.String("api", cfg.Client.APIURL, "booking API base URL")
	asName := flag.String("as-name", "", "signed-in display name sent as bearer identity")
	asEmail := flag.String("as-email", "", "signed-in email sent as bearer identity")
	flag.Parse()

	var opts []client.Option
	if *asEmail != "" && cfg.Auth.JWTSecret != "" {
		token, err := auth.NewIdentityToken(auth.Identity{Name: *asName, Email: *asEmail}, cfg.Auth.JWTSecret, time.Hour)
		if err != nil {
			logger.Error("Failed to sign identity", "error", err)
			os.Exit(1)
		}
		opts = append(opts, client.WithBearerToken(token))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := wizard.New(client.New(*apiURL, cfg.Client.Timeout, opts...))
	if err := run(ctx, os.Stdin, os.Stdout, w); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type session struct {
	in  *bufio.Scanner
	out io.Writer
	w   *wizard.Wizard
}

// run drives w from line-oriented input until the booking is submitted,
// the user quits or input ends.
func run(ctx context.Context, in io.Reader, out io.Writer, w *wizard.Wizard) error {
	s := &session{in: bufio.NewScanner(in), out: out, w: w}

	for {
		step := w.Step()
		fmt.Fprintf(out, "\nStep %d of 3: %s\n", int(step)+1, step)

		switch step {
		case wizard.StepPersonalInfo:
			if !s.personalInfo() {
				return nil
			}
		case wizard.StepAppointmentDetails:
			if !s.appointmentDetails() {
				return nil
			}
		case wizard.StepConfirmation:
			s.summary()
		}

		cmd, ok := s.ask("Command [next|back|submit|quit]", "next")
		if !ok {
			return nil
		}
		switch strings.ToLower(cmd) {
		case "next", "n":
			w.Next()
		case "back", "b":
			w.Back()
		case "submit", "s":
			err := w.Submit(ctx)
			banner, _ := w.Banner()
			switch {
			case err == nil:
				fmt.Fprintln(out, banner)
				fmt.Fprintf(out, "Meeting link: %s\n", w.MeetLink())
				return nil
			case errors.Is(err, wizard.ErrNotOnConfirmation):
				fmt.Fprintln(out, "Go to the confirmation step before submitting.")
			case banner != "":
				fmt.Fprintln(out, banner)
			default:
				fmt.Fprintln(out, err)
			}
		case "quit", "q":
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q\n", cmd)
		}
	}
}

// ask prints a prompt and returns the trimmed line, or def when it is blank.
func (s *session) ask(prompt, def string) (string, bool) {
	if def != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", prompt)
	}
	if !s.in.Scan() {
		return "", false
	}
	line := strings.TrimSpace(s.in.Text())
	if line == "" {
		return def, true
	}
	return line, true
}

func (s *session) personalInfo() bool {
	d := s.w.Draft()
	name, ok := s.ask("Full name", d.Name)
	if !ok {
		return false
	}
	email, ok := s.ask("Email", d.Email)
	if !ok {
		return false
	}
	phone, ok := s.ask("Phone", d.Phone)
	if !ok {
		return false
	}
	s.edit(func(d *wizard.Draft) {
		d.Name, d.Email, d.Phone = name, email, phone
	})
	return true
}

func (s *session) appointmentDetails() bool {
	d := s.w.Draft()

	for i, opt := range domain.ServiceOptions {
		fmt.Fprintf(s.out, "  %d) %s\n", i+1, opt.Label)
	}
	raw, ok := s.ask("Service", string(d.Service))
	if !ok {
		return false
	}
	service := parseService(raw)
	if service == "" && raw != "" {
		fmt.Fprintf(s.out, "Unknown service %q\n", raw)
	}

	date, ok := s.askTime("Date (YYYY-MM-DD)", inputDateLayout, d.Date)
	if !ok {
		return false
	}
	clock, ok := s.askTime("Time (HH:MM, 24h)", inputTimeLayout, d.Time)
	if !ok {
		return false
	}
	message, ok := s.ask("Message (optional)", d.Message)
	if !ok {
		return false
	}

	s.edit(func(d *wizard.Draft) {
		d.Service, d.Date, d.Time, d.Message = service, date, clock, message
	})
	return true
}

func (s *session) askTime(prompt, layout string, current time.Time) (time.Time, bool) {
	def := ""
	if !current.IsZero() {
		def = current.Format(layout)
	}
	raw, ok := s.ask(prompt, def)
	if !ok || raw == "" {
		return current, ok
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		fmt.Fprintf(s.out, "Could not read %q, expected %s\n", raw, layout)
		return current, true
	}
	return t, true
}

func (s *session) summary() {
	d := s.w.Draft()
	show := func(label, value string) {
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(s.out, "  %-8s %s\n", label+":", value)
	}
	show("Name", d.Name)
	show("Email", d.Email)
	show("Phone", d.Phone)
	show("Service", serviceLabel(d.Service))
	show("Date", formatOrEmpty(d.Date, wizard.DateLayout))
	show("Time", formatOrEmpty(d.Time, wizard.TimeLayout))
	if d.Message != "" {
		show("Message", d.Message)
	}
}

func (s *session) edit(fn func(*wizard.Draft)) {
	if err := s.w.Edit(fn); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

// parseService accepts a menu number or a service value.
func parseService(raw string) domain.ServiceKind {
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(domain.ServiceOptions) {
		return domain.ServiceOptions[n-1].Value
	}
	k, _ := domain.ParseServiceKind(strings.ToLower(raw))
	return k
}

func serviceLabel(k domain.ServiceKind) string {
	if k == "" {
		return ""
	}
	return k.Label()
}

func formatOrEmpty(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
