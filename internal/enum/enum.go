package enum

// ── Group A: State machines ──

const (
	SessionStateIdle                = "IDLE"
	SessionStateAwaitingCustomInput = "AWAITING_CUSTOM_INPUT"
)

// ── Group B: Deployment options ──

const (
	LedgerBackendMemory   = "memory"
	LedgerBackendPostgres = "postgres"
	LedgerBackendSheet    = "sheet"
)

// ── Group C: Dashboard feed ──

const (
	EventSaleRecorded   = "sale.recorded"
	EventSessionCreated = "session.created"
)
