package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency     = metric.NewHistogram("1m1s")
	SpfDuration         = metric.NewHistogram("1m1s")
	SpfRuns             = metric.NewCounter("10s1s")
	LspsParsed          = metric.NewCounter("10s1s")
	MalformedRecords    = metric.NewCounter("10s1s")
	NicknameConflicts   = metric.NewCounter("10s1s")
	NicknameAllocations = metric.NewCounter("10s1s")
	DataplaneRequests   = metric.NewCounter("10s1s")
	DataplaneTimeouts   = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("rbridge:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("rbridge:SpfDuration (µs)", SpfDuration)
	expvar.Publish("rbridge:SpfRuns/s", SpfRuns)
	expvar.Publish("rbridge:LspsParsed/s", LspsParsed)
	expvar.Publish("rbridge:MalformedRecords/s", MalformedRecords)
	expvar.Publish("rbridge:NicknameConflicts/s", NicknameConflicts)
	expvar.Publish("rbridge:NicknameAllocations/s", NicknameAllocations)
	expvar.Publish("rbridge:DataplaneRequests/s", DataplaneRequests)
	expvar.Publish("rbridge:DataplaneTimeouts/s", DataplaneTimeouts)
}
