package booking

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"culturin/internal/domain"
	"culturin/internal/modules/navigation"
)

var pageTmpl = template.Must(template.New("confirmation").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Booking {{.B.Reference}}</title></head>
<body>
<main>
<h1>Booking confirmed</h1>
<p>Reference <strong>{{.B.Reference}}</strong></p>
<dl>
<dt>Experience</dt><dd>{{.B.ExperienceName}}</dd>
<dt>Date</dt><dd>{{.Date}}{{if .B.TimeSlot}} at {{.B.TimeSlot}}{{end}}</dd>
<dt>Guests</dt><dd>{{.B.GuestCount}}</dd>
<dt>Total</dt><dd>{{.Total}}</dd>
</dl>
<p>A confirmation was sent to {{.B.ContactEmail}}.</p>
<nav>{{.Home}} {{.Download}}</nav>
</main>
</body>
</html>
`))

// ConfirmationPage renders the post-booking page with links back to the
// operator's site and to the downloadable confirmation.
func ConfirmationPage(b *domain.Booking, siteBaseURL string) ([]byte, error) {
	home := siteBaseURL
	if home == "" {
		home = "/"
	}
	data := struct {
		B        *domain.Booking
		Date     string
		Total    string
		Home     template.HTML
		Download template.HTML
	}{
		B:     b,
		Date:  b.Date.Format("Monday, January 2, 2006"),
		Total: formatMoney(b.TotalPrice, b.Currency),
		Home:  navigation.Link(navigation.LinkProps{To: home, Children: "Return to website"}),
		Download: navigation.Link(navigation.LinkProps{
			To:       "/api/v1/bookings/" + b.Reference + "/download",
			Children: "Download confirmation",
		}),
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConfirmationText is the plain-text confirmation offered for download.
func ConfirmationText(b *domain.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Culturin booking confirmation\n\n")
	fmt.Fprintf(&sb, "Reference:   %s\n", b.Reference)
	fmt.Fprintf(&sb, "Experience:  %s\n", b.ExperienceName)
	fmt.Fprintf(&sb, "Date:        %s\n", b.Date.Format("2006-01-02"))
	if b.TimeSlot != "" {
		fmt.Fprintf(&sb, "Time:        %s\n", b.TimeSlot)
	}
	fmt.Fprintf(&sb, "Guests:      %d\n", b.GuestCount)
	fmt.Fprintf(&sb, "Booking fee: %s\n", formatMoney(Fee(b.PricePerPerson, b.GuestCount, b.FeeRate), b.Currency))
	fmt.Fprintf(&sb, "Total:       %s\n", formatMoney(b.TotalPrice, b.Currency))
	fmt.Fprintf(&sb, "Name:        %s\n", b.ContactName)
	fmt.Fprintf(&sb, "Email:       %s\n", b.ContactEmail)
	if b.Requests != "" {
		fmt.Fprintf(&sb, "Requests:    %s\n", b.Requests)
	}
	return sb.String()
}

func formatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}
