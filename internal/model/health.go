package model

// AgentStatus is the health classification computed by the heartbeat on
// every fire.
type AgentStatus string

const (
	AgentStatusOK               AgentStatus = "ok"
	AgentStatusError            AgentStatus = "error"
	AgentStatusTerminatingOK    AgentStatus = "terminating_ok"
	AgentStatusTerminatingError AgentStatus = "terminating_error"
)

// HealthError is the shape of one entry in AgentHealthData.Errors: the
// ErrorRecord's data nested one level, plus its own timestamp
// (`{data: {name, message, stacktrace}, timestamp}`).
type HealthError struct {
	Data      HealthErrorData `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// HealthErrorData is the `data` field of a HealthError.
type HealthErrorData struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

// AgentHealthData is the payload shipped by the heartbeat, always via the
// HTTPS sink and never the object-store sink.
type AgentHealthData struct {
	OrganizationID string        `json:"organization_id"`
	DBKey          string        `json:"db_key"`
	AgentStatus    AgentStatus   `json:"agent_status"`
	AgentStartTime string        `json:"agent_starttime"`
	HeartbeatTime  string        `json:"heartbeat_time"`
	AgentVersion   string        `json:"agent_version"`
	Errors         []HealthError `json:"errors"`
}
