package state

var (
	NodeConfigPath   = "node.yaml"
	CampusConfigPath = "campus.yaml"

	DBG_log_nickdb    = false
	DBG_log_spf       = false
	DBG_log_dataplane = false
	DBG_debug         = false
)
