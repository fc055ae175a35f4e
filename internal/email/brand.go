package email

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	// Containers often ship without a zoneinfo database.
	_ "time/tzdata"

	"golang.org/x/text/language"

	"github.com/illegalcall/storefront-mailer/internal/config"
)

// Brand holds the storefront identity every template and header draws on.
type Brand struct {
	Name          string
	From          string
	OperatorEmail string
	SupportEmail  string
	SiteURL       string
	Currency      string
	// DiscountPercent is the welcome discount advertised to new subscribers.
	DiscountPercent int
	Locale          language.Tag
	Location        *time.Location
}

func BrandFromConfig(mail config.MailConfig, brand config.BrandConfig) (Brand, error) {
	tag, err := language.Parse(brand.Locale)
	if err != nil {
		return Brand{}, fmt.Errorf("invalid locale %q: %w", brand.Locale, err)
	}
	loc, err := time.LoadLocation(brand.Timezone)
	if err != nil {
		return Brand{}, fmt.Errorf("invalid timezone %q: %w", brand.Timezone, err)
	}

	return Brand{
		Name:            brand.Name,
		From:            mail.From,
		OperatorEmail:   mail.OperatorEmail,
		SupportEmail:    mail.SupportEmail,
		SiteURL:         strings.TrimRight(brand.SiteURL, "/"),
		Currency:        brand.Currency,
		DiscountPercent: brand.DiscountPercent,
		Locale:          tag,
		Location:        loc,
	}, nil
}

func (b Brand) TrackingURL(orderNumber string) string {
	return b.SiteURL + "/track-order?order=" + url.QueryEscape(orderNumber)
}

func (b Brand) UnsubscribeURL(email string) string {
	return b.SiteURL + "/unsubscribe?email=" + url.QueryEscape(email)
}
