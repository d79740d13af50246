package couchjwt

import "time"

// SecurityReport summarizes the security-relevant settings of a running
// engine. The server logs it at startup.
type SecurityReport struct {
	ProductionMode        bool
	SigningAlgorithm      string
	AcceptedAlgorithms    []string
	TokenTTL              time.Duration
	Issuer                string
	SessionBackend        string
	Sessionless           bool
	SessionTTL            time.Duration
	RevocationEffective   bool
	RoleRefreshEnabled    bool
	RoleRefreshBestEffort bool
	LoginThrottleActive   bool
	AuditEnabled          bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	algs := append([]string(nil), e.config.Token.Algorithms...)
	signing := ""
	if len(algs) > 0 {
		signing = algs[0]
	}

	return SecurityReport{
		ProductionMode:        e.config.Security.ProductionMode,
		SigningAlgorithm:      signing,
		AcceptedAlgorithms:    algs,
		TokenTTL:              e.TokenTTL(),
		Issuer:                e.config.Token.Issuer,
		SessionBackend:        e.backend,
		Sessionless:           e.config.Session.Sessionless,
		SessionTTL:            e.config.Session.TTL,
		RevocationEffective:   !e.config.Session.Sessionless && e.backend != "none",
		RoleRefreshEnabled:    e.config.RoleRefresh.Enabled,
		RoleRefreshBestEffort: e.config.RoleRefresh.BestEffort,
		LoginThrottleActive:   e.rateLimiter != nil,
		AuditEnabled:          e.audit != nil,
	}
}
