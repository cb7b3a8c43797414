package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"propvest/internal/engine"
)

const (
	progressEvery = 500
	dateLayout    = "2006-01-02"
	// built-in "#,##0.00"
	moneyNumFmt = 4
)

type sheetWriter struct {
	f     *excelize.File
	money int
	err   error
}

func newWorkbook(first string) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), first); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return nil, err
	}
	return &sheetWriter{f: f, money: money}, nil
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	if idx, _ := w.f.GetSheetIndex(name); idx >= 0 {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

// moneyColumns applies the currency number format to columns [from, to] (1-based).
func (w *sheetWriter) moneyColumns(sheet string, from, to int) {
	if w.err != nil {
		return
	}
	a, _ := excelize.ColumnNumberToName(from)
	b, _ := excelize.ColumnNumberToName(to)
	w.err = w.f.SetColStyle(sheet, a+":"+b, w.money)
}

func (w *sheetWriter) done() (*excelize.File, error) {
	if w.err != nil {
		_ = w.f.Close()
		return nil, w.err
	}
	return w.f, nil
}

func dollars(c engine.Cents) float64 { return c.Dollars() }

// projectionWorkbook renders a summary sheet, one row per period and one row per year.
func projectionWorkbook(p engine.Projection, currency string, progress func(done, total int)) (*excelize.File, error) {
	w, err := newWorkbook("Summary")
	if err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Initial repayment", p.InitialPayment.Format(currency)},
		{"Total paid", p.TotalPaid.Format(currency)},
		{"Total interest", p.TotalInterest.Format(currency)},
		{"Total principal", p.TotalPrincipal.Format(currency)},
		{"Periods", len(p.Rows)},
	}
	if p.PayoffDate != nil {
		summary = append(summary, []any{"Paid off", p.PayoffDate.Format(dateLayout)})
	}
	if s := p.Savings; s != nil {
		summary = append(summary,
			[]any{"Periods saved", s.PeriodsSaved},
			[]any{"Interest saved", s.InterestSaved.Format(currency)},
		)
	}
	for i, r := range summary {
		w.row("Summary", i+1, r...)
	}

	w.sheet("Schedule")
	w.row("Schedule", 1, "Period", "Date", "Rate %", "Payment", "Interest", "Principal", "Extra",
		"Balance", "Offset", "Property value", "Equity", "LVR %", "Rent", "Expenses", "Net cashflow")
	total := len(p.Rows)
	for i, r := range p.Rows {
		w.row("Schedule", i+2,
			r.Period, r.Date.Format(dateLayout), r.Rate.Percent(),
			dollars(r.Payment), dollars(r.Interest), dollars(r.Principal), dollars(r.Extra),
			dollars(r.Balance), dollars(r.Offset), dollars(r.PropertyValue), dollars(r.Equity),
			float64(r.LVR), dollars(r.Rent), dollars(r.Expenses), dollars(r.NetCashflow),
		)
		if progress != nil && ((i+1)%progressEvery == 0 || i == total-1) {
			progress(i+1, total)
		}
	}
	w.moneyColumns("Schedule", 4, 11)
	w.moneyColumns("Schedule", 13, 15)

	w.sheet("Yearly")
	writeYearly(w, "Yearly", p.Yearly)
	return w.done()
}

func writeYearly(w *sheetWriter, sheet string, years []engine.YearSummary) {
	w.row(sheet, 1, "Year", "Opening balance", "Closing balance", "Interest", "Principal", "Repayments",
		"Rent", "Expenses", "Net cashflow", "Property value", "Equity", "LVR %",
		"Tax benefit", "Tax payable", "After-tax cashflow")
	for i, y := range years {
		var benefit, payable, afterTax any = "", "", ""
		if y.Tax != nil {
			benefit, payable, afterTax = dollars(y.Tax.TaxBenefit), dollars(y.Tax.TaxPayable), dollars(y.Tax.AfterTaxCashflow)
		}
		w.row(sheet, i+2,
			y.Year, dollars(y.OpeningBalance), dollars(y.ClosingBalance), dollars(y.Interest),
			dollars(y.Principal), dollars(y.Repayments), dollars(y.Rent), dollars(y.Expenses),
			dollars(y.NetCashflow), dollars(y.PropertyValue), dollars(y.Equity), float64(y.LVR),
			benefit, payable, afterTax,
		)
	}
	w.moneyColumns(sheet, 2, 11)
	w.moneyColumns(sheet, 13, 15)
}

// portfolioWorkbook renders the per-year rollup and each property's yearly summary.
func portfolioWorkbook(r PortfolioReport, progress func(done, total int)) (*excelize.File, error) {
	w, err := newWorkbook("Portfolio")
	if err != nil {
		return nil, err
	}
	w.row("Portfolio", 1, "Year", "Properties", "Property value", "Debt", "Equity", "LVR %",
		"Rent", "Expenses", "Repayments", "Interest", "Net cashflow")
	for i, y := range r.Years {
		w.row("Portfolio", i+2,
			y.Year, y.Properties, dollars(y.PropertyValue), dollars(y.Debt), dollars(y.Equity),
			float64(y.LVR), dollars(y.Rent), dollars(y.Expenses), dollars(y.Repayments),
			dollars(y.Interest), dollars(y.NetCashflow),
		)
	}
	w.moneyColumns("Portfolio", 3, 5)
	w.moneyColumns("Portfolio", 7, 11)

	w.sheet("Properties")
	w.row("Properties", 1, "Property", "Year", "Closing balance", "Property value", "Equity", "LVR %",
		"Rent", "Expenses", "Repayments", "Net cashflow")
	n := 2
	for i, p := range r.Properties {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		for _, y := range p.Projection.Yearly {
			w.row("Properties", n,
				name, y.Year, dollars(y.ClosingBalance), dollars(y.PropertyValue), dollars(y.Equity),
				float64(y.LVR), dollars(y.Rent), dollars(y.Expenses), dollars(y.Repayments), dollars(y.NetCashflow),
			)
			n++
		}
		if progress != nil {
			progress(i+1, len(r.Properties))
		}
	}
	w.moneyColumns("Properties", 3, 5)
	w.moneyColumns("Properties", 7, 10)

	w.sheet("Summary")
	if len(r.Years) > 0 {
		last := r.Years[len(r.Years)-1]
		w.row("Summary", 1, "Portfolio", r.Name)
		w.row("Summary", 2, "Horizon", fmt.Sprintf("%d years", r.Horizon))
		w.row("Summary", 3, "Final value", last.PropertyValue.Format(r.Currency))
		w.row("Summary", 4, "Final debt", last.Debt.Format(r.Currency))
		w.row("Summary", 5, "Final equity", last.Equity.Format(r.Currency))
	}
	return w.done()
}
