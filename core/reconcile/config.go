package reconcile

// Config holds reconciliation settings.
type Config struct {
	// DryRun builds plans without applying them.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// PerDomainTransactions submits one transaction per domain.
	PerDomainTransactions bool `mapstructure:"per_domain_transactions" default:"false"`
	// Concurrency limits concurrent leaf-setting upserts. Zero means unlimited.
	Concurrency int `mapstructure:"concurrency" default:"4"`
}

// Options converts the configuration into engine options.
func (c Config) Options() Options {
	return Options{
		DryRun:                c.DryRun,
		PerDomainTransactions: c.PerDomainTransactions,
		Concurrency:           c.Concurrency,
	}
}
