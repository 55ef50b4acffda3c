package domain

import "time"

// ProductKind distinguishes the three storefront product families.
type ProductKind string

const (
	KindService  ProductKind = "SERVICE"
	KindPhysical ProductKind = "PHYSICAL"
	KindDigital  ProductKind = "DIGITAL"
)

// BillingCycle is the recurring-charge interval of a subscription product.
type BillingCycle string

const (
	CycleMonthly    BillingCycle = "MONTHLY"
	CycleQuarterly  BillingCycle = "QUARTERLY"
	CycleSemiannual BillingCycle = "SEMIANNUAL"
	CycleAnnual     BillingCycle = "ANNUAL"
)

// NextChargeDate returns the first renewal date after a subscription start.
func (c BillingCycle) NextChargeDate(from time.Time) time.Time {
	switch c {
	case CycleQuarterly:
		return from.AddDate(0, 3, 0)
	case CycleSemiannual:
		return from.AddDate(0, 6, 0)
	case CycleAnnual:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// SubscriptionTerms describes the recurring billing attached to a product.
type SubscriptionTerms struct {
	Cycle      BillingCycle
	AutoCharge bool
	GraceDays  int
}

// OptionValue is one selectable value of a customizable option. Price
// modifiers are deltas against the product base price; either may be zero.
type OptionValue struct {
	ID           string
	Name         string
	PriceDelta   float64
	PercentDelta float64
	Available    bool
}

// CustomOption is a customizable axis of a service product (duration,
// modality, level). Required options must have an available value selected
// before a cart line is valid.
type CustomOption struct {
	ID       string
	Name     string
	Required bool
	Values   []OptionValue
}

// FindValue returns the value with the given id, or nil.
func (o *CustomOption) FindValue(valueID string) *OptionValue {
	for i := range o.Values {
		if o.Values[i].ID == valueID {
			return &o.Values[i]
		}
	}
	return nil
}

// QuantityDiscount is one tier of a product's quantity discount table.
type QuantityDiscount struct {
	MinQuantity int
	Percent     float64
	Description string
}

// InstallmentPlan is a split-payment option a product can offer at checkout.
type InstallmentPlan struct {
	ID              string
	Installments    int
	InterestPercent float64
	MinAmount       float64
	Available       bool
}

// Product is the catalog aggregate the pricing engine consumes. Everything
// beyond id, category and base price is optional metadata.
type Product struct {
	ID        string
	Name      string
	Category  string
	Kind      ProductKind
	BasePrice float64
	Active    bool

	// Sessions > 0 together with IsVoucher marks a prepaid session bundle.
	Sessions  int
	IsVoucher bool

	// Subscription is set for recurring-billing products.
	Subscription *SubscriptionTerms

	Options           []CustomOption
	QuantityDiscounts []QuantityDiscount

	AllowInstallments bool
	InstallmentPlans  []InstallmentPlan
}

// IsSubscription reports whether purchasing this product creates a
// recurring-billing record.
func (p *Product) IsSubscription() bool {
	return p.Subscription != nil
}

// FindOption returns the customizable option with the given id, or nil.
func (p *Product) FindOption(optionID string) *CustomOption {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i]
		}
	}
	return nil
}

// FindInstallmentPlan returns the available plan with the given id, or nil.
func (p *Product) FindInstallmentPlan(planID string) *InstallmentPlan {
	for i := range p.InstallmentPlans {
		if p.InstallmentPlans[i].ID == planID && p.InstallmentPlans[i].Available {
			return &p.InstallmentPlans[i]
		}
	}
	return nil
}

// MissingRequiredOptions lists the ids of required options that have no
// selected, available value. An empty result means the selection is valid.
func (p *Product) MissingRequiredOptions(sel SelectedOptions) []string {
	var missing []string
	for i := range p.Options {
		opt := &p.Options[i]
		if !opt.Required {
			continue
		}
		val := opt.FindValue(sel[opt.ID])
		if val == nil || !val.Available {
			missing = append(missing, opt.ID)
		}
	}
	return missing
}
