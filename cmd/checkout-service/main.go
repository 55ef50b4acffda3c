package main

import (
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"vigor/internal/pkg/bootstrap"
	"vigor/internal/pkg/logger"
	"vigor/internal/pkg/mq"
	"vigor/internal/pkg/redis"
	"vigor/internal/service/checkout/application"
	"vigor/internal/service/checkout/domain"
	"vigor/internal/service/checkout/infrastructure"
	"vigor/internal/service/checkout/infrastructure/adapter"
	"vigor/internal/service/checkout/infrastructure/rule"
	"vigor/internal/service/checkout/interfaces"
)

const serviceName = "checkout-service"

// main is the composition root: it picks real or in-memory adapters from the
// configuration, assembles the services and starts the HTTP server.
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	store := infrastructure.NewMemoryStore()
	seedDemoCatalog(store)

	var (
		promoRepo domain.PromoCodeRepository = store
		usage     domain.PromoUsageStore     = store
		customers domain.CustomerRepository  = store.CustomerRepo()
		subs      domain.SubscriptionRepository
		vouchers  domain.VoucherRepository
		orders    domain.OrderRepository = store.OrderRepo()
		referrals domain.ReferralRegistrar
		events    domain.EventProducer
	)
	subs = store.SubscriptionRepo()
	vouchers = store.VoucherRepo()
	referrals = store

	if dsn := cfg.Infra.Mysql.DSN; dsn != "" {
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to connect to mysql")
		}
		if err := infrastructure.Migrate(db); err != nil {
			logger.L().Fatal().Err(err).Msg("failed to migrate schema")
		}
		promoRepo = infrastructure.NewGormPromoCodeRepository(db)
		customers = infrastructure.NewGormCustomerRepository(db)
		subs = infrastructure.NewGormSubscriptionRepository(db)
		vouchers = infrastructure.NewGormVoucherRepository(db)
		orders = infrastructure.NewGormOrderRepository(db)
	}

	if addr := cfg.Infra.Redis.Addr; addr != "" {
		redisClient, err := redis.NewClient(addr)
		if err != nil {
			logger.L().Fatal().Err(err).Str("addr", addr).Msg("failed to connect to redis")
		}
		usage = adapter.NewPromoUsageRedisAdapter(redisClient)
	}

	if brokers := cfg.Infra.Kafka.Brokers; len(brokers) > 0 {
		writer := mq.NewWriter(brokers, cfg.Infra.Kafka.Topic)
		kafkaAdapter := adapter.NewEventKafkaAdapter(writer)
		events = kafkaAdapter
		referrals = kafkaAdapter
	}

	offerEngine, err := rule.NewCELOfferEngine()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to build offer engine")
	}

	pricingCfg := domain.PricingConfig{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		ShippingBaseRate:      cfg.Pricing.ShippingBaseRate,
	}
	tracer := otel.Tracer(serviceName)

	cartService := application.NewCartService(store, store, offerEngine, pricingCfg, tracer)
	promoService := application.NewPromoService(promoRepo, usage, tracer)
	checkoutService := application.NewCheckoutService(pricingCfg, application.CheckoutDeps{
		Customers: customers,
		Subs:      subs,
		Vouchers:  vouchers,
		Referrals: referrals,
		Orders:    orders,
		Payments:  adapter.NewPaymentSimulator(),
		Promos:    promoService,
		Events:    events,
	}, tracer)

	handler := interfaces.NewCheckoutHandler(cartService, promoService, checkoutService)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8090,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}

// seedDemoCatalog loads the gym storefront's catalog so the service answers
// real requests out of the box. A product-admin surface would replace this.
func seedDemoCatalog(store *infrastructure.MemoryStore) {
	now := time.Now()

	store.SeedCatalog(
		&domain.Product{
			ID:        "plan-basico",
			Name:      "Plan Básico",
			Category:  "membresia",
			Kind:      domain.KindService,
			BasePrice: 29.90,
			Active:    true,
			Subscription: &domain.SubscriptionTerms{
				Cycle:      domain.CycleMonthly,
				AutoCharge: true,
				GraceDays:  5,
			},
		},
		&domain.Product{
			ID:        "plan-premium",
			Name:      "Plan Premium",
			Category:  "membresia",
			Kind:      domain.KindService,
			BasePrice: 49.90,
			Active:    true,
			Subscription: &domain.SubscriptionTerms{
				Cycle:      domain.CycleMonthly,
				AutoCharge: true,
				GraceDays:  5,
			},
			Options: []domain.CustomOption{
				{
					ID:       "acceso",
					Name:     "Acceso",
					Required: true,
					Values: []domain.OptionValue{
						{ID: "un-centro", Name: "Un centro", Available: true},
						{ID: "todos-los-centros", Name: "Todos los centros", PercentDelta: 20, Available: true},
					},
				},
			},
		},
		&domain.Product{
			ID:        "bono-10-sesiones",
			Name:      "Bono 10 sesiones",
			Category:  "entrenamiento",
			Kind:      domain.KindService,
			BasePrice: 90,
			Active:    true,
			Sessions:  10,
			IsVoucher: true,
			QuantityDiscounts: []domain.QuantityDiscount{
				{MinQuantity: 3, Percent: 10, Description: "10% from 3 bundles"},
			},
		},
		&domain.Product{
			ID:                "camiseta-gym",
			Name:              "Camiseta oficial",
			Category:          "merchandising",
			Kind:              domain.KindPhysical,
			BasePrice:         19.95,
			Active:            true,
			AllowInstallments: false,
			Options: []domain.CustomOption{
				{
					ID:       "talla",
					Name:     "Talla",
					Required: true,
					Values: []domain.OptionValue{
						{ID: "s", Name: "S", Available: true},
						{ID: "m", Name: "M", Available: true},
						{ID: "l", Name: "L", Available: true},
						{ID: "xl", Name: "XL", PriceDelta: 1.50, Available: true},
					},
				},
			},
		},
		&domain.Product{
			ID:                "programa-transformacion",
			Name:              "Programa transformación 12 semanas",
			Category:          "entrenamiento",
			Kind:              domain.KindDigital,
			BasePrice:         299,
			Active:            true,
			AllowInstallments: true,
			InstallmentPlans: []domain.InstallmentPlan{
				{ID: "3-cuotas", Installments: 3, InterestPercent: 0, MinAmount: 150, Available: true},
				{ID: "6-cuotas", Installments: 6, InterestPercent: 5, MinAmount: 250, Available: true},
			},
		},
	)

	store.SeedOffers(&domain.SpecialOffer{
		ID:         "volumen-bonos",
		Name:       "Volume discount on session bundles",
		Kind:       domain.OfferVolume,
		StartDate:  now.AddDate(0, -1, 0),
		EndDate:    now.AddDate(0, 1, 0),
		ProductIDs: []string{"bono-10-sesiones"},
		Rule:       "quantity >= 5 ? 15.0 : 0.0",
		Active:     true,
	})
}
