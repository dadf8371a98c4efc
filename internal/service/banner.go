package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/domain/product"
)

// BannerService renders the embeddable discount banner script for a
// (product, visitor country) pair.
type BannerService interface {
	// GetBannerScript returns the JS snippet, or ok=false when the
	// visitor's country has no discount and no banner should render.
	GetBannerScript(ctx context.Context, productID, countryCode string) (string, bool, error)
}

type bannerArgs struct {
	ProductID   string `json:"product_id"`
	CountryCode string `json:"country_code"`
}

type bannerService struct {
	ServiceParams

	subscriptions SubscriptionService

	bannerData *cache.Memoized[bannerArgs, *product.BannerData]
}

func NewBannerService(params ServiceParams) BannerService {
	s := &bannerService{
		ServiceParams: params,
		subscriptions: NewSubscriptionService(params),
	}

	s.bannerData = cache.Memoize(params.Cache, "banner.data",
		func(ctx context.Context, args bannerArgs) (*product.BannerData, error) {
			return params.ProductRepo.GetBannerData(ctx, args.ProductID, args.CountryCode)
		},
		func(args bannerArgs) []string {
			// Discount and theme changes invalidate through the product
			// id tag; country reference reloads through the global tag.
			return []string{
				cache.IDTag(cache.TagProducts, args.ProductID),
				cache.GlobalTag(cache.TagCountries),
				cache.GlobalTag(cache.TagCountryGroups),
			}
		},
	)
	return s
}

func (s *bannerService) GetBannerScript(ctx context.Context, productID, countryCode string) (string, bool, error) {
	data, err := s.bannerData.Call(ctx, bannerArgs{ProductID: productID, CountryCode: strings.ToUpper(countryCode)})
	if err != nil {
		return "", false, err
	}
	if data.Discount == nil {
		return "", false, nil
	}

	tier, err := s.subscriptions.GetUserTier(ctx, data.Product.ClerkUserID)
	if err != nil {
		return "", false, err
	}

	return renderBannerScript(data, tier.CanRemoveBranding), true, nil
}

// jsEscape makes a user-controlled value safe inside a single-quoted JS
// string literal.
func jsEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// renderBannerScript builds the self-contained snippet the embed tag
// loads. The message is HTML injected via innerHTML, so single quotes
// are entity-escaped before the discount placeholders are substituted.
func renderBannerScript(data *product.BannerData, canRemoveBranding bool) string {
	c := data.Customization

	message := strings.ReplaceAll(c.LocationMessage, "'", "&#39;")
	message = strings.NewReplacer(
		"{country}", data.CountryName,
		"{coupon}", data.Discount.Coupon,
		"{discount}", data.Discount.DiscountPercentage.String(),
	).Replace(message)

	prefix := "deals-banner"
	if c.ClassPrefix != nil && *c.ClassPrefix != "" {
		prefix = *c.ClassPrefix
	}

	position := "static"
	if c.IsSticky {
		position = "sticky"
	}

	css := fmt.Sprintf(
		".%s-container{position:%s;top:0;left:0;right:0;z-index:9999;background-color:%s;color:%s;font-size:%s;padding:8px 16px;text-align:center;}",
		prefix, position, c.BackgroundColor, c.TextColor, c.FontSize,
	)
	css += fmt.Sprintf(".%s-branding{color:inherit;margin-left:8px;font-size:0.75em;text-decoration:underline;}", prefix)

	branding := ""
	if !canRemoveBranding {
		branding = fmt.Sprintf(
			`<a class="%s-branding" href="https://localedeals.dev" target="_blank" rel="noreferrer">Powered by LocaleDeals</a>`,
			prefix,
		)
	}

	return fmt.Sprintf(`(function () {
	var style = document.createElement('style');
	style.textContent = '%s';
	document.head.appendChild(style);

	var banner = document.createElement('div');
	banner.className = '%s-container';
	banner.innerHTML = '<span class="%s-message">%s</span>%s';

	var container = document.querySelector('%s') || document.body;
	container.prepend(banner);
})();
`,
		jsEscape(css),
		prefix, prefix,
		jsEscape(message),
		jsEscape(branding),
		jsEscape(c.BannerContainer),
	)
}
