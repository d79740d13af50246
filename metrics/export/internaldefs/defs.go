package internaldefs

import (
	couchjwt "github.com/MrEthical07/couchjwt"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   couchjwt.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for exporters.
type HistogramDef struct {
	ID   couchjwt.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const AuditDroppedName = "couchjwt_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: couchjwt.MetricLoginSuccess, Name: "couchjwt_login_success_total", Help: "Successful logins."},
	{ID: couchjwt.MetricLoginFailure, Name: "couchjwt_login_failure_total", Help: "Failed logins."},
	{ID: couchjwt.MetricLoginRateLimited, Name: "couchjwt_login_rate_limited_total", Help: "Logins refused by the login throttle."},
	{ID: couchjwt.MetricSessionCreated, Name: "couchjwt_session_created_total", Help: "Created sessions."},
	{ID: couchjwt.MetricInfoSuccess, Name: "couchjwt_info_success_total", Help: "Tokens validated successfully."},
	{ID: couchjwt.MetricInfoFailure, Name: "couchjwt_info_failure_total", Help: "Rejected token validations."},
	{ID: couchjwt.MetricExpiredToken, Name: "couchjwt_expired_token_total", Help: "Validations rejected because the token expired."},
	{ID: couchjwt.MetricRenewSuccess, Name: "couchjwt_renew_success_total", Help: "Successful token renewals."},
	{ID: couchjwt.MetricRenewFailure, Name: "couchjwt_renew_failure_total", Help: "Failed token renewals."},
	{ID: couchjwt.MetricLogoutSuccess, Name: "couchjwt_logout_success_total", Help: "Successful logouts."},
	{ID: couchjwt.MetricLogoutFailure, Name: "couchjwt_logout_failure_total", Help: "Failed logouts."},
	{ID: couchjwt.MetricSessionRevoked, Name: "couchjwt_session_revoked_total", Help: "Revoked sessions."},
	{ID: couchjwt.MetricRevokeConflict, Name: "couchjwt_revoke_conflict_total", Help: "Logouts that lost a revision race to a concurrent revoke."},
	{ID: couchjwt.MetricBackendError, Name: "couchjwt_backend_error_total", Help: "Session store failures."},
	{ID: couchjwt.MetricRoleRefreshSuppressed, Name: "couchjwt_role_refresh_suppressed_total", Help: "Role refresh failures hidden by the best-effort policy."},
	{ID: couchjwt.MetricInternalError, Name: "couchjwt_internal_error_total", Help: "Unclassified failures returned as 500."},
}

var HistogramDefs = []HistogramDef{
	{ID: couchjwt.MetricLoginLatency, Name: "couchjwt_login_latency_seconds", Help: "Login latency histogram."},
	{ID: couchjwt.MetricInfoLatency, Name: "couchjwt_info_latency_seconds", Help: "Info latency histogram."},
	{ID: couchjwt.MetricRenewLatency, Name: "couchjwt_renew_latency_seconds", Help: "Renew latency histogram."},
	{ID: couchjwt.MetricLogoutLatency, Name: "couchjwt_logout_latency_seconds", Help: "Logout latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds; the last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies up to eight raw bucket counts into a fixed array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
