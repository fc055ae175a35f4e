package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/message"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	timestampLayout = "02/01/2006, 15:04:05"
	dateLayout      = "02/01/2006"
)

// Rendered is the presentation of one email. Text is empty for actions
// without a plain-text variant.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type RendererOption func(*Renderer)

// WithNow fixes the clock used for timestamps and dates.
func WithNow(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// Renderer turns payloads into subjects and bodies. It performs no I/O and
// is safe for concurrent use.
type Renderer struct {
	brand   Brand
	html    *template.Template
	text    *texttemplate.Template
	printer *message.Printer
	now     func() time.Time
}

type itemView struct {
	Name     string
	Quantity int
	Price    string
}

type view struct {
	Brand     Brand
	Year      int
	Timestamp string
	Date      string

	Contact       models.ContactPayload
	Test          models.TestPayload
	Order         models.OrderPayload
	PaymentMethod string
	Items         []itemView
	Total         string
	TrackingURL   string

	DiscountCode    string
	DiscountPercent int
	UnsubscribeURL  string
}

func NewRenderer(brand Brand, opts ...RendererOption) (*Renderer, error) {
	if brand.Location == nil {
		brand.Location = time.UTC
	}

	html, err := template.New("emails").Funcs(template.FuncMap{
		"nl2br": nl2br,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}

	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}

	r := &Renderer{
		brand:   brand,
		html:    html,
		text:    text,
		printer: message.NewPrinter(brand.Locale),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Renderer) Brand() Brand {
	return r.brand
}

func (r *Renderer) Contact(p models.ContactPayload) (Rendered, error) {
	v := r.newView()
	v.Contact = p

	html, err := r.executeHTML("contact.html", v)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject: "Contact Form: " + p.Subject,
		HTML:    html,
	}, nil
}

func (r *Renderer) Test(p models.TestPayload) (Rendered, error) {
	v := r.newView()
	v.Test = p

	html, err := r.executeHTML("test.html", v)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: p.Subject, HTML: html}, nil
}

func (r *Renderer) Order(p models.OrderPayload) (Rendered, error) {
	v := r.orderView(p)

	html, err := r.executeHTML("order.html", v)
	if err != nil {
		return Rendered{}, err
	}

	var text bytes.Buffer
	if err := r.text.ExecuteTemplate(&text, "order.txt", v); err != nil {
		return Rendered{}, fmt.Errorf("failed to execute template order.txt: %w", err)
	}

	return Rendered{
		Subject: fmt.Sprintf("Order Confirmation #%s - %s", p.OrderNumber, r.brand.Name),
		HTML:    html,
		Text:    text.String(),
	}, nil
}

func (r *Renderer) Payment(p models.PaymentPayload) (Rendered, error) {
	v := r.orderView(p.OrderPayload)
	v.PaymentMethod = p.Method()

	html, err := r.executeHTML("payment.html", v)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject: fmt.Sprintf("Payment Confirmed - Order #%s - %s", p.OrderNumber, r.brand.Name),
		HTML:    html,
	}, nil
}

func (r *Renderer) Newsletter(p models.NewsletterPayload, discountCode string) (Rendered, error) {
	v := r.newView()
	v.DiscountCode = discountCode
	v.DiscountPercent = r.brand.DiscountPercent
	v.UnsubscribeURL = r.brand.UnsubscribeURL(p.Email)

	html, err := r.executeHTML("newsletter.html", v)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject: fmt.Sprintf("Welcome to %s - Enjoy %d%% Off Your First Order", r.brand.Name, r.brand.DiscountPercent),
		HTML:    html,
	}, nil
}

// Money formats an amount with the brand currency and locale grouping, e.g. "KES 15,000".
func (r *Renderer) Money(amount float64) string {
	return r.brand.Currency + " " + r.number(amount)
}

func (r *Renderer) number(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return r.printer.Sprintf("%d", int64(v))
	}
	return r.printer.Sprintf("%.2f", v)
}

func (r *Renderer) newView() view {
	now := r.now().In(r.brand.Location)
	return view{
		Brand:     r.brand,
		Year:      now.Year(),
		Timestamp: now.Format(timestampLayout),
		Date:      now.Format(dateLayout),
	}
}

func (r *Renderer) orderView(p models.OrderPayload) view {
	v := r.newView()
	v.Order = p
	v.Total = r.Money(p.Total)
	v.TrackingURL = r.brand.TrackingURL(p.OrderNumber.String())
	v.Items = make([]itemView, len(p.Items))
	for i, item := range p.Items {
		v.Items[i] = itemView{
			Name:     item.Name,
			Quantity: int(item.Quantity),
			Price:    r.Money(item.Price),
		}
	}
	return v
}

func (r *Renderer) executeHTML(name string, v view) (string, error) {
	var buf bytes.Buffer
	if err := r.html.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// nl2br escapes s and turns each line break into <br>.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
