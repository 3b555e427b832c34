package routes

import "github.com/Joseph14078/JoAuth/internal/interfaces"

// RegisterMetrics registers every metric the handlers and the login rate
// limiter report to.
func RegisterMetrics(appMetrics interfaces.Metrics) {
	appMetrics.RegisterCounter(SignupRequestsTotal, SignupRequestsTotalHelp)
	appMetrics.RegisterCounter(SignupSuccessTotal, SignupSuccessTotalHelp)
	appMetrics.RegisterCounter(SignupErrorsTotal, SignupErrorsTotalHelp)
	appMetrics.RegisterHistogram(
		SignupDurationSeconds,
		SignupDurationSecondsHelp,
		SignupDurationSecondsBuckets)

	appMetrics.RegisterCounter(LoginRequestsTotal, LoginRequestsTotalHelp)
	appMetrics.RegisterCounter(LoginSuccessTotal, LoginSuccessTotalHelp)
	appMetrics.RegisterCounter(LoginFailedTotal, LoginFailedTotalHelp)
	appMetrics.RegisterCounter(LoginRateLimitedTotal, LoginRateLimitedTotalHelp)
	appMetrics.RegisterHistogram(
		LoginDurationSeconds,
		LoginDurationSecondsHelp,
		LoginDurationSecondsBuckets)

	appMetrics.RegisterCounter(EditRequestsTotal, EditRequestsTotalHelp)
	appMetrics.RegisterCounter(RemoveRequestsTotal, RemoveRequestsTotalHelp)
	appMetrics.RegisterCounterVec(AccountFailuresTotal, AccountFailuresTotalHelp, AccountFailuresLabels)
}
