package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/resumeforge/resumeforge-backend/internal/models"
)

// ErrUnknownPlan is returned when a checkout request names a plan that
// is not part of the catalog. It is a caller error, not a Stripe error.
var ErrUnknownPlan = errors.New("unknown plan type")

// Recognized plan identifiers.
const (
	PlanTrial   = "trial"
	PlanMonthly = "monthly"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// AppID is attached to every checkout session as metadata so webhook
	// events can be filtered when several apps share one Stripe account.
	AppID string
	// AckOnReconcileFailure controls the webhook response when the
	// backend update fails after a verified event: true acknowledges and
	// leaves recovery to manual reconciliation, false makes Stripe retry.
	AckOnReconcileFailure bool
}

type ProductConfig struct {
	Name        string
	Currency    string
	AmountCents int64
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

type EmailConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
}

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	Stripe      StripeConfig
	Product     ProductConfig
	R2          R2Config
	Email       EmailConfig
	Plans       map[string]models.PlanDefinition
}

// Load builds the process-wide configuration from the environment. The
// result is treated as immutable; components receive it explicitly.
func Load() *Config {
	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.Stripe.AppID = getEnvOrDefault("STRIPE_APP_ID", "resumeforge")
	cfg.Stripe.AckOnReconcileFailure = getEnvBool("WEBHOOK_ACK_ON_RECONCILE_FAILURE", true)

	cfg.Product.Name = getEnvOrDefault("PRODUCT_NAME", "ResumeForge CV")
	cfg.Product.Currency = getEnvOrDefault("PRODUCT_CURRENCY", "usd")
	cfg.Product.AmountCents = getEnvInt64("PRODUCT_AMOUNT_CENTS", 990)

	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")

	cfg.Email.APIKey = os.Getenv("RESEND_API_KEY")
	cfg.Email.FromAddress = os.Getenv("EMAIL_FROM_ADDRESS")
	cfg.Email.FromName = getEnvOrDefault("EMAIL_FROM_NAME", "ResumeForge")

	cfg.Plans = map[string]models.PlanDefinition{
		PlanTrial: {
			Type:        PlanTrial,
			Mode:        models.PlanModeOneTime,
			PriceID:     getEnvOrDefault("STRIPE_TRIAL_PRICE_ID", "price_trial_intro"),
			Currency:    cfg.Product.Currency,
			AmountCents: getEnvInt64("STRIPE_TRIAL_AMOUNT_CENTS", 190),
		},
		PlanMonthly: {
			Type:        PlanMonthly,
			Mode:        models.PlanModeRecurring,
			PriceID:     getEnvOrDefault("STRIPE_MONTHLY_PRICE_ID", "price_monthly_sub"),
			Currency:    cfg.Product.Currency,
			AmountCents: getEnvInt64("STRIPE_MONTHLY_AMOUNT_CENTS", 590),
		},
	}

	return cfg
}

// ResolvePlan looks up a plan by its identifier. Unknown identifiers
// fail with ErrUnknownPlan before any provider call is made.
func (c *Config) ResolvePlan(planType string) (models.PlanDefinition, error) {
	plan, ok := c.Plans[planType]
	if !ok {
		return models.PlanDefinition{}, ErrUnknownPlan
	}
	return plan, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
