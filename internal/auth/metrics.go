package auth

// MetricsRecorder は認証フローのメトリクスを記録するインターフェース。
// metrics.Collectorが実装する。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordUserCreated()
	RecordStoreFault(operation string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLoginSuccess()       {}
func (noopMetrics) RecordLoginFailure(string) {}
func (noopMetrics) RecordUserCreated()        {}
func (noopMetrics) RecordStoreFault(string)   {}

// ログイン失敗の理由ラベル
const (
	FailureReasonExchange = "exchange"
	FailureReasonProfile  = "profile"
	FailureReasonStore    = "store"
)
