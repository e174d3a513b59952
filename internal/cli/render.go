package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/point-planner/internal/planner"
)

func renderJSON(w io.Writer, res *planner.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// renderTable prints the plan summary followed by one row per order. Amounts
// use thousands separators.
func renderTable(w io.Writer, n int, res *planner.Result) error {
	p := message.NewPrinter(language.English)
	num := func(v int64) string { return p.Sprintf("%d", v) }

	var b strings.Builder
	fmt.Fprintf(&b, "Plan for %s item(s)\n", num(int64(n)))
	line := func(label, value string) {
		fmt.Fprintf(&b, "  %-16s %s\n", label, value)
	}
	line("cash total", num(res.Summary.CashTotal))
	line("leftover points", num(res.Summary.LeftoverPoints))
	line("orders", num(int64(res.Summary.OrderCount)))
	line("gross total", num(res.Summary.GrossTotal))
	line("savings", num(res.Summary.Savings))
	line("exact", yesNo(res.Meta.Exact))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%3s %5s %10s %10s %10s %8s %10s %4s\n",
		"#", "qty", "order", "points", "cash", "earned", "balance", "elig")
	for _, tx := range res.Transactions {
		fmt.Fprintf(&b, "%3d %5s %10s %10s %10s %8s %10s %4s\n",
			tx.Index,
			num(int64(tx.Quantity)),
			num(tx.OrderTotal),
			num(tx.PointsRedeemed),
			num(tx.CashPaid),
			num(tx.PointsEarned),
			num(tx.PointsBalance),
			yesNo(tx.Eligible),
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
