package state

import "time"

var (
	// SpfMinInterval is the minimum time between two SPF runs
	SpfMinInterval = time.Second * 1
	// SpfPeriodicInterval re-runs SPF even when nothing changed
	SpfPeriodicInterval = time.Second * 30
	// SpfJitterPercent is applied to the periodic interval
	SpfJitterPercent = 10
	// SpfStartupDelay holds the first SPF run while adjacencies come up
	SpfStartupDelay = time.Second * 60

	// LspDbAcquireDelay is how long the node waits for the link-state database before choosing a nickname
	LspDbAcquireDelay = time.Second * 5

	DataplaneRequestTTL   = time.Second * 5
	DataplaneDialTimeout  = time.Second * 2
	DataplaneMaxFrameSize = 64 * 1024

	SlowDispatchThreshold = time.Millisecond * 4

	DefaultDataplaneSocket = "/var/run/rbridge/dataplane.sock"
	DefaultInspectSocket   = "/var/run/rbridge/inspect.sock"
	DefaultSpfMetric       = uint32(10)
)
