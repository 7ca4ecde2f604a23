package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// printer renders command results as aligned text for a terminal or as JSON.
type printer struct {
	w    io.Writer
	json bool
}

// newPrinter picks JSON when forced or when w is not a terminal.
func newPrinter(w io.Writer, forceJSON bool) *printer {
	return &printer{w: w, json: forceJSON || !isTTY(w)}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type tokenView struct {
	Token     string `json:"token"`
	State     string `json:"state"`
	ExpiresAt string `json:"expires_at"`
	ExpiresIn string `json:"expires_in"`
}

type intentView struct {
	ID              string `json:"id"`
	ClientSecret    string `json:"client_secret,omitempty"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	MerchantOrderID string `json:"merchant_order_id"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type migrationView struct {
	Path    string `json:"path"`
	Version uint   `json:"version"`
	Dirty   bool   `json:"dirty"`
}

func toIntentView(pi model.PaymentIntent, withSecret bool) intentView {
	v := intentView{
		ID:              pi.ID,
		Amount:          pi.Amount,
		Currency:        pi.Currency,
		MerchantOrderID: pi.MerchantOrderID,
		Status:          pi.Status,
	}
	if withSecret {
		v.ClientSecret = pi.ClientSecret
	}
	if !pi.CreatedAt.IsZero() {
		v.CreatedAt = pi.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) token(v tokenView) error {
	if p.json {
		return p.writeJSON(v)
	}
	return p.fields([][2]string{
		{"Token", v.Token},
		{"State", v.State},
		{"Expires", v.ExpiresAt},
		{"Expires in", v.ExpiresIn},
	})
}

func (p *printer) intent(pi model.PaymentIntent, withSecret bool) error {
	v := toIntentView(pi, withSecret)
	if p.json {
		return p.writeJSON(v)
	}

	rows := [][2]string{
		{"ID", v.ID},
		{"Status", orDash(v.Status)},
		{"Amount", fmt.Sprintf("%d %s", v.Amount, v.Currency)},
		{"Order", orDash(v.MerchantOrderID)},
		{"Created", orDash(v.CreatedAt)},
	}
	if withSecret {
		rows = append(rows, [2]string{"Client secret", v.ClientSecret})
	}
	return p.fields(rows)
}

func (p *printer) intents(list []model.PaymentIntent) error {
	views := make([]intentView, 0, len(list))
	for _, pi := range list {
		views = append(views, toIntentView(pi, false))
	}
	if p.json {
		return p.writeJSON(views)
	}

	if len(views) == 0 {
		_, err := fmt.Fprintln(p.w, "No payment intents recorded.")
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tAMOUNT\tORDER\tCREATED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%d %s\t%s\t%s\n", v.ID, orDash(v.Status), v.Amount, v.Currency, orDash(v.MerchantOrderID), orDash(v.CreatedAt))
	}
	return tw.Flush()
}

func (p *printer) migration(v migrationView) error {
	if p.json {
		return p.writeJSON(v)
	}
	state := "clean"
	if v.Dirty {
		state = "dirty"
	}
	return p.fields([][2]string{
		{"Database", v.Path},
		{"Version", fmt.Sprintf("%d", v.Version)},
		{"State", state},
	})
}

func (p *printer) fields(rows [][2]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
