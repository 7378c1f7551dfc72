package pkg

const (
	HeaderTraceId        string = "X-Trace-Id"
	HeaderRequestId      string = "X-Request-Id"
	HeaderIdempotencyKey string = "Idempotency-Key"
	HeaderAuthorization  string = "Authorization"
)

const (
	TraceId        string = "trace_id"
	RequestId      string = "request_id"
	IdempotencyKey string = "idempotency_key"
	TransactionId  string = "transaction_id"
	AccountId      string = "account_id"
	PrincipalKey   string = "principal"
	EventId        string = "event_id"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

func (s AccountStatus) Valid() bool {
	return s == AccountStatusActive || s == AccountStatusInactive
}

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTrade      TransactionType = "trade"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTrade:
		return true
	}
	return false
}

// RequiresMethod reports whether a payment rail must accompany the request.
func (t TransactionType) RequiresMethod() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRejected  TransactionStatus = "rejected"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusRejected:
		return true
	}
	return false
}

type EventType string

const (
	EventAccountRegistered    EventType = "account.registered"
	EventTransactionCreated   EventType = "transaction.created"
	EventTransactionCompleted EventType = "transaction.completed"
	EventTransactionRejected  EventType = "transaction.rejected"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

type CopyTradeStatus string

const (
	CopyTradeActive  CopyTradeStatus = "active"
	CopyTradeStopped CopyTradeStatus = "stopped"
)
