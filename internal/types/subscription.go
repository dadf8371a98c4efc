package types

// SubscriptionTier is the plan level controlling feature access.
type SubscriptionTier string

const (
	SubscriptionTierFree     SubscriptionTier = "Free"
	SubscriptionTierBasic    SubscriptionTier = "Basic"
	SubscriptionTierStandard SubscriptionTier = "Standard"
	SubscriptionTierPremium  SubscriptionTier = "Premium"
)

func (t SubscriptionTier) Validate() bool {
	switch t {
	case SubscriptionTierFree, SubscriptionTierBasic, SubscriptionTierStandard, SubscriptionTierPremium:
		return true
	}
	return false
}

// TierConfig describes what a tier allows. The stripe price id is assigned
// from configuration at startup; Free has none.
type TierConfig struct {
	Name               SubscriptionTier `json:"name"`
	PriceCents         int64            `json:"price_cents"`
	MaxProducts        int              `json:"max_products"`
	MaxVisits          int              `json:"max_visits"`
	CanAccessAnalytics bool             `json:"can_access_analytics"`
	CanCustomizeBanner bool             `json:"can_customize_banner"`
	CanRemoveBranding  bool             `json:"can_remove_branding"`
	StripePriceID      string           `json:"stripe_price_id"`
}

// SubscriptionTiers holds the tier catalog and the reverse price-id index.
type SubscriptionTiers struct {
	byTier    map[SubscriptionTier]TierConfig
	byPriceID map[string]TierConfig
	ordered   []TierConfig
}

// NewSubscriptionTiers builds the catalog. Ordering of configs is preserved
// for paid-tier listings.
func NewSubscriptionTiers(configs []TierConfig) *SubscriptionTiers {
	t := &SubscriptionTiers{
		byTier:    make(map[SubscriptionTier]TierConfig, len(configs)),
		byPriceID: make(map[string]TierConfig, len(configs)),
		ordered:   configs,
	}
	for _, cfg := range configs {
		t.byTier[cfg.Name] = cfg
		if cfg.StripePriceID != "" {
			t.byPriceID[cfg.StripePriceID] = cfg
		}
	}
	return t
}

// Get returns the config for a tier.
func (t *SubscriptionTiers) Get(tier SubscriptionTier) (TierConfig, bool) {
	cfg, ok := t.byTier[tier]
	return cfg, ok
}

// GetByPriceID resolves a stripe price id to a tier config. A price the
// catalog does not know is a hard error for the webhook path.
func (t *SubscriptionTiers) GetByPriceID(priceID string) (TierConfig, bool) {
	cfg, ok := t.byPriceID[priceID]
	return cfg, ok
}

// Free returns the default tier every user starts on and falls back to on
// cancellation.
func (t *SubscriptionTiers) Free() TierConfig {
	if cfg, ok := t.byTier[SubscriptionTierFree]; ok {
		return cfg
	}
	return TierConfig{Name: SubscriptionTierFree, MaxProducts: 1, MaxVisits: 5000}
}

// Paid returns the purchasable tiers in catalog order.
func (t *SubscriptionTiers) Paid() []TierConfig {
	paid := make([]TierConfig, 0, len(t.ordered))
	for _, cfg := range t.ordered {
		if cfg.Name != SubscriptionTierFree {
			paid = append(paid, cfg)
		}
	}
	return paid
}

// DefaultTierConfigs mirrors the shipped catalog; price ids are overridden
// from configuration per environment.
func DefaultTierConfigs() []TierConfig {
	return []TierConfig{
		{Name: SubscriptionTierFree, PriceCents: 0, MaxProducts: 1, MaxVisits: 5_000},
		{Name: SubscriptionTierBasic, PriceCents: 1900, MaxProducts: 5, MaxVisits: 10_000, CanAccessAnalytics: true},
		{Name: SubscriptionTierStandard, PriceCents: 4900, MaxProducts: 30, MaxVisits: 100_000, CanAccessAnalytics: true, CanCustomizeBanner: true},
		{Name: SubscriptionTierPremium, PriceCents: 9900, MaxProducts: 50, MaxVisits: 1_000_000, CanAccessAnalytics: true, CanCustomizeBanner: true, CanRemoveBranding: true},
	}
}
