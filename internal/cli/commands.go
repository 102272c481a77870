package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/draft"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/invoice/listing"
	"github.com/smallbiznis/invoicedesk/internal/tui"
	"github.com/urfave/cli/v2"
)

var ErrMissingID = errors.New("missing_invoice_id")

var exportFlag = &cli.StringFlag{
	Name:  "export",
	Usage: "export the saved invoice as `FORMAT` (pdf or docx)",
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "obtain an access token from the record store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}},
			&cli.StringFlag{Name: "password", EnvVars: []string{"INVOICEDESK_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			return withDeps(c, func(ctx context.Context, d deps) error {
				p := newPrompter(c.App.Reader, c.App.Writer)
				username := c.String("username")
				if username == "" {
					var err error
					if username, err = p.Ask("Username: "); err != nil {
						return err
					}
				}
				password := c.String("password")
				if password == "" {
					var err error
					if password, err = p.Ask("Password: "); err != nil {
						return err
					}
				}
				if _, err := session.Login(ctx, d.Client, d.Session, username, password); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Logged in as %s\n", strings.TrimSpace(username))
				return nil
			})
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored access token",
		Action: func(c *cli.Context) error {
			return withDeps(c, func(ctx context.Context, d deps) error {
				if err := session.Logout(ctx, d.Session); err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, "Logged out")
				return nil
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list invoices matching the filters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "customer", Usage: "customer name contains `TEXT`"},
			&cli.StringFlag{Name: "po", Usage: "PO number contains `TEXT`"},
			&cli.StringFlag{Name: "from", Usage: "invoice date on or after `YYYY-MM-DD`"},
			&cli.StringFlag{Name: "to", Usage: "invoice date on or before `YYYY-MM-DD`"},
			&cli.StringFlag{Name: "xlsx", Usage: "write the list to `FILE` instead of printing it"},
		},
		Action: func(c *cli.Context) error {
			return withDeps(c, func(ctx context.Context, d deps) error {
				criteria := domain.FilterCriteria{
					CustomerName: c.String("customer"),
					PONo:         c.String("po"),
					StartDate:    c.String("from"),
					EndDate:      c.String("to"),
				}
				if err := d.Listing.ApplyFilters(ctx, criteria); err != nil {
					return err
				}
				rows := d.Listing.Invoices()

				if path := c.String("xlsx"); path != "" {
					if err := writeWorkbookFile(path, rows); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Wrote %d invoices to %s\n", len(rows), path)
					return nil
				}
				if len(rows) == 0 {
					fmt.Fprintln(c.App.Writer, "No invoices found")
					return nil
				}
				fmt.Fprintln(c.App.Writer, renderList(rows))
				return nil
			})
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "create an invoice from a yaml draft",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "draft `FILE`, or - for stdin"},
			exportFlag,
		},
		Action: func(c *cli.Context) error {
			df, err := loadDraftFile(c, c.String("file"))
			if err != nil {
				return err
			}
			return withDeps(c, func(ctx context.Context, d deps) error {
				ed := d.NewEditor()
				if err := df.apply(ed); err != nil {
					return err
				}
				return saveAndExport(ctx, c, d, ed)
			})
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "change an existing invoice",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "set", Usage: "set a header field, `FIELD=VALUE`"},
			&cli.StringSliceFlag{Name: "item-set", Usage: "set an item field, `N.FIELD=VALUE` (items count from 1)"},
			&cli.IntFlag{Name: "item-add", Usage: "append `N` blank items"},
			&cli.IntSliceFlag{Name: "item-rm", Usage: "remove item `N`"},
			exportFlag,
		},
		Action: func(c *cli.Context) error {
			id, err := invoiceID(c)
			if err != nil {
				return err
			}
			ops, err := parseEditOps(c.StringSlice("set"), c.StringSlice("item-set"), c.Int("item-add"), c.IntSlice("item-rm"))
			if err != nil {
				return err
			}
			return withDeps(c, func(ctx context.Context, d deps) error {
				rec, err := d.Client.Get(ctx, id)
				if err != nil {
					return err
				}
				if rec.ID == "" {
					rec.ID = id
				}
				ed := d.NewEditor()
				if err := ed.LoadForEdit(rec); err != nil {
					return err
				}
				if err := ops.apply(ed); err != nil {
					return err
				}
				return saveAndExport(ctx, c, d, ed)
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete an invoice",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		},
		Action: func(c *cli.Context) error {
			id, err := invoiceID(c)
			if err != nil {
				return err
			}
			return withDeps(c, func(ctx context.Context, d deps) error {
				confirm := listing.Confirmed
				if !c.Bool("yes") {
					confirm = newPrompter(c.App.Reader, c.App.Writer)
				}
				deleted, err := d.Listing.DeleteRecord(ctx, id, confirm)
				if err != nil {
					return err
				}
				if deleted {
					fmt.Fprintf(c.App.Writer, "Deleted invoice %s\n", id)
				} else {
					fmt.Fprintln(c.App.Writer, "Nothing deleted")
				}
				return nil
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "render an invoice and deliver it",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: string(domain.FormatPDF), Usage: "`FORMAT`, pdf or docx"},
		},
		Action: func(c *cli.Context) error {
			id, err := invoiceID(c)
			if err != nil {
				return err
			}
			fmtv, err := domain.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			return withDeps(c, func(ctx context.Context, d deps) error {
				rec, err := d.Client.Get(ctx, id)
				if err != nil {
					return err
				}
				ref := domain.SavedInvoiceRef{ID: id, InvoiceNo: rec.InvoiceNo}
				return exportRef(ctx, c.App.Writer, d, &ref, fmtv)
			})
		},
	}
}

func browseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "browse invoices with live filters",
		Action: func(c *cli.Context) error {
			return withDeps(c, func(ctx context.Context, d deps) error {
				return tui.Run(ctx, tui.Params{Listing: d.Listing, Exporter: d.Exporter})
			})
		},
	}
}

// saveAndExport prints the draft, saves it and exports the saved invoice
// when --export is given.
func saveAndExport(ctx context.Context, c *cli.Context, d deps, ed *draft.Editor) error {
	var exportFormat domain.Format
	if raw := c.String("export"); raw != "" {
		f, err := domain.ParseFormat(raw)
		if err != nil {
			return err
		}
		exportFormat = f
	}

	w := c.App.Writer
	printDraft(w, ed.Draft())
	ref, err := d.Reconcile.Save(ctx, ed)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved invoice %s (id %s)\n", ref.InvoiceNo, ref.ID)

	if exportFormat == "" {
		return nil
	}
	return exportRef(ctx, w, d, &ref, exportFormat)
}

func exportRef(ctx context.Context, w io.Writer, d deps, ref *domain.SavedInvoiceRef, f domain.Format) error {
	res, err := d.Exporter.RequestExport(ctx, ref, f)
	if err != nil {
		return err
	}
	if res.Location == "" {
		fmt.Fprintln(w, "Nothing to export")
		return nil
	}
	fmt.Fprintf(w, "Exported %s to %s\n", res.Filename, res.Location)
	return nil
}

func printDraft(w io.Writer, dr domain.Draft) {
	fmt.Fprintf(w, "Customer: %s\n", dr.CustomerName)
	for i, item := range dr.Items {
		fmt.Fprintf(w, "  %d. %s  %s x %s = %s\n",
			i+1,
			item.Description,
			format.Quantity(item.Qty.Float64()),
			format.Money(item.UnitRate.Float64()),
			format.Money(domain.LineAmount(item)),
		)
	}
	fmt.Fprintf(w, "Subtotal: %s\n", format.Money(dr.Subtotal()))
	fmt.Fprintf(w, "VAT:      %s\n", format.Money(dr.VAT.Float64()))
	fmt.Fprintf(w, "WHT:      %s\n", format.Money(dr.WHT.Float64()))
	fmt.Fprintf(w, "Total:    %s\n", format.Money(dr.GrandTotal()))
}

func invoiceID(c *cli.Context) (domain.ID, error) {
	id := domain.ID(strings.TrimSpace(c.Args().First()))
	if id == "" {
		return "", ErrMissingID
	}
	return id, nil
}

func loadDraftFile(c *cli.Context, path string) (draftFile, error) {
	if path == "-" {
		return readDraftFile(c.App.Reader)
	}
	f, err := os.Open(path)
	if err != nil {
		return draftFile{}, err
	}
	defer f.Close()
	return readDraftFile(f)
}

func writeWorkbookFile(path string, rows []domain.InvoiceSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeWorkbook(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
